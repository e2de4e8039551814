package common

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSentinels_AreDistinct(t *testing.T) {
	all := []error{
		ErrNotFound, ErrAlreadyExists, ErrInternal, ErrUnauthenticated,
		ErrInvalidCredentials, ErrUnavailable, ErrInvalidToken, ErrTokenExpired,
		ErrInvalidDate, ErrNoData, ErrGeneration, ErrInvalidImport,
	}
	for i, a := range all {
		for j, b := range all {
			if i != j {
				require.False(t, errors.Is(a, b), "%v must not match %v", a, b)
			}
		}
	}
}

func TestSentinels_SurviveWrapping(t *testing.T) {
	err := fmt.Errorf("list month: %w", ErrUnavailable)
	require.ErrorIs(t, err, ErrUnavailable)
}
