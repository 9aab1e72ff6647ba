package table

import (
	"context"
	"fmt"
)

// Transform is a mutation applied to a Table.
type Transform interface {
	Name() string
	Apply(ctx context.Context, t *Table) (*Table, error)
}

// Pipeline composes a sequence of Transforms.
type Pipeline struct {
	steps []Transform
}

func NewPipeline() *Pipeline { return &Pipeline{} }

func (p *Pipeline) Add(t Transform) *Pipeline {
	p.steps = append(p.steps, t)
	return p
}

// Steps returns the step names in run order.
func (p *Pipeline) Steps() []string {
	out := make([]string, len(p.steps))
	for i, s := range p.steps {
		out[i] = s.Name()
	}
	return out
}

func (p *Pipeline) Run(ctx context.Context, t *Table) (*Table, error) {
	var err error
	cur := t
	for _, s := range p.steps {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		cur, err = s.Apply(ctx, cur)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", s.Name(), err)
		}
	}
	return cur, nil
}

// TransformFunc adapts a function to the Transform interface.
type TransformFunc struct {
	Label string
	Fn    func(ctx context.Context, t *Table) (*Table, error)
}

func (f TransformFunc) Name() string { return f.Label }
func (f TransformFunc) Apply(ctx context.Context, t *Table) (*Table, error) {
	return f.Fn(ctx, t)
}
