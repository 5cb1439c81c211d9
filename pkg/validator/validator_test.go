package validator

import (
	"testing"

	"github.com/stretchr/testify/require"
)

type sample struct {
	Name string `validate:"required"`
	Port int    `validate:"min=1,max=65535"`
}

func TestValidateStructPasses(t *testing.T) {
	require.NoError(t, ValidateStruct(sample{Name: "gate", Port: 8000}))
}

func TestValidateStructCollectsFailures(t *testing.T) {
	err := ValidateStruct(sample{Port: 0})
	require.Error(t, err)

	ve, ok := err.(ValidationErrors)
	require.True(t, ok)
	require.Len(t, ve, 2)
	require.Contains(t, err.Error(), "Name failed on required")
	require.Contains(t, err.Error(), "Port failed on min=1")
}
