package cmd

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/viper"

	"github.com/gmarkoss/tessera/internal/cliconfig"
	"github.com/gmarkoss/tessera/pkg/client"
)

// f carries the shared command state, wired from persistent flags.
var f = NewFactory()

type Factory struct {
	// RemoteAddr is the address of the Tessera server to connect to.
	RemoteAddr string
}

func NewFactory() *Factory {
	return &Factory{}
}

// GetRemoteAddr resolves the server address: flag first, then
// config/env.
func (f *Factory) GetRemoteAddr() (string, error) {
	server := f.RemoteAddr
	if server == "" {
		server = viper.GetString(ServerAddrKey)
	}
	if server == "" {
		return "", fmt.Errorf("server address not configured (use --server or set TESSERA_ADDR)")
	}
	return server, nil
}

// GetClient returns a client for remote operations, authenticated with
// a saved admin credential or TESSERA_TOKEN when either exists.
func (f *Factory) GetClient() (*client.Client, error) {
	server, err := f.GetRemoteAddr()
	if err != nil {
		return nil, err
	}

	var token string
	if cfg, err := cliconfig.Load(); err == nil {
		if cred, err := cfg.GetCredential(server); err == nil { // token prio 1: saved credential
			token = cred.Token
		} else if !errors.Is(err, cliconfig.ErrCredentialNotFound) {
			return nil, err
		}
	}

	if envToken := os.Getenv("TESSERA_TOKEN"); envToken != "" { // token prio 2: env var
		token = envToken
	}

	return client.New(server, client.WithAuthToken(token)), nil
}
