package pipeline

// Stage is an extensibility hook for one pipeline stage. A nil Stage
// means Continue.
type Stage func(*Context) Disposition

// Hooks carries the optional stage hooks of one endpoint. Each hook
// runs before the built-in logic of its stage and may short-circuit it
// through its disposition.
type Hooks struct {
	OnExtract  Stage
	OnValidate Stage
	OnHandle   Stage
	OnApply    Stage
}

func runHook(s Stage, c *Context) Disposition {
	if s == nil {
		return Continue()
	}
	return s(c)
}
