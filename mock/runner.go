package mock

import "github.com/fwojciec/selectql"

var _ selectql.Runner = (*Runner)(nil)

// Runner is a mock implementation of selectql.Runner.
type Runner struct {
	RunFn func(req *selectql.Request) (any, error)
}

func (r *Runner) Run(req *selectql.Request) (any, error) {
	return r.RunFn(req)
}
