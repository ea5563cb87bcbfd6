package domain_test

import (
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/tdex-network/escrowd/internal/core/domain"
)

func TestNewPage(t *testing.T) {
	t.Parallel()

	tests := []struct {
		number, size                 int
		expectedNumber, expectedSize int
		expectedOffset               int
	}{
		{0, 0, 1, domain.DefaultPageSize, 0},
		{3, 5, 3, 5, 10},
		{-1, 1000, 1, domain.MaxPageSize, 0},
		{2, domain.MaxPageSize, 2, domain.MaxPageSize, domain.MaxPageSize},
	}

	for _, tt := range tests {
		page := domain.NewPage(tt.number, tt.size)
		require.Equal(t, tt.expectedNumber, page.Number)
		require.Equal(t, tt.expectedSize, page.Size)
		require.Equal(t, tt.expectedOffset, page.Offset())
	}
}
