package dynamo

import (
	"context"
	"errors"
	"testing"

	"github.com/san-kum/spacesim/internal/vmath"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnsembleRunsMembersIndependently(t *testing.T) {
	build := func(member int) (*Simulator, error) {
		s, err := New(DefaultConfig())
		if err != nil {
			return nil, err
		}
		for i := 0; i <= member; i++ {
			p := params(float64(i * 10))
			p.Velocity = vmath.Vec2{Y: 1}
			if _, err := s.Spawn(p); err != nil {
				return nil, err
			}
		}
		return s, nil
	}

	results, err := NewEnsemble(build, 4, 2).Run(context.Background(), 3)
	require.NoError(t, err)
	require.Len(t, results, 4)
	for i, res := range results {
		assert.Equal(t, 3, res.StepsTaken)
		assert.Equal(t, i+1, res.Final.Len())
	}
}

func TestEnsemblePropagatesBuildError(t *testing.T) {
	boom := errors.New("boom")
	build := func(member int) (*Simulator, error) {
		if member == 2 {
			return nil, boom
		}
		return New(DefaultConfig())
	}
	_, err := NewEnsemble(build, 3, 0).Run(context.Background(), 2)
	assert.ErrorIs(t, err, boom)
}

func TestEnsembleNeedsMembers(t *testing.T) {
	_, err := NewEnsemble(nil, 0, 0).Run(context.Background(), 1)
	assert.Error(t, err)
}
