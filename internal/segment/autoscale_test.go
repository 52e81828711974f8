// Copyright (c) 2026 Heliocore contributors.
// All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.
package segment

import (
	"testing"

	"github.com/heliocore/drms-export/internal/store"
	"github.com/heliocore/drms-export/pkg/dtype"
	"github.com/stretchr/testify/require"
)

func TestAutoscalePhysicalFloatToFloatIsIdentity(t *testing.T) {
	a := &store.Array{
		Type:  dtype.Float,
		Naxis: 1,
		Axes:  []int64{3},
		Data: []dtype.Value{
			dtype.NewFloat(dtype.Float, 1),
			dtype.NewFloat(dtype.Float, 2),
			dtype.NewFloat(dtype.Float, 3),
		},
		IsRaw: false,
	}
	out, err := Autoscale(a, dtype.Float)
	require.NoError(t, err)
	require.Equal(t, 0.0, out.Bzero)
	require.Equal(t, 1.0, out.Bscale)
}

func TestAutoscaleChoosesRangeFittingShort(t *testing.T) {
	a := &store.Array{
		Type:  dtype.Double,
		Naxis: 1,
		Axes:  []int64{3},
		Data: []dtype.Value{
			dtype.NewFloat(dtype.Double, -100.0),
			dtype.NewFloat(dtype.Double, 0.0),
			dtype.NewFloat(dtype.Double, 100.0),
		},
	}
	out, err := Autoscale(a, dtype.Short)
	require.NoError(t, err)
	require.Equal(t, dtype.Short, out.Type)
	require.True(t, out.IsRaw)
	for _, v := range out.Data {
		require.GreaterOrEqual(t, v.Int64(), dtype.IntegerMin(dtype.Short)+1)
		require.LessOrEqual(t, v.Int64(), dtype.IntegerMax(dtype.Short))
	}
}

func TestAutoscalePreservesExistingRawScaling(t *testing.T) {
	a := &store.Array{
		Type:   dtype.Short,
		Naxis:  1,
		Axes:   []int64{2},
		Data:   []dtype.Value{dtype.NewInt(dtype.Short, 10), dtype.NewInt(dtype.Short, 20)},
		IsRaw:  true,
		Bzero:  0,
		Bscale: 1,
	}
	out, err := Autoscale(a, dtype.Short)
	require.NoError(t, err)
	require.Equal(t, 0.0, out.Bzero)
	require.Equal(t, 1.0, out.Bscale)
}

func TestAutoscaleSkipsMissingValues(t *testing.T) {
	a := &store.Array{
		Type:  dtype.Double,
		Naxis: 1,
		Axes:  []int64{2},
		Data:  []dtype.Value{dtype.NewFloat(dtype.Double, 5.0), dtype.AllocateMissing(dtype.Double)},
	}
	out, err := Autoscale(a, dtype.Char)
	require.NoError(t, err)
	require.True(t, dtype.IsMissing(out.Data[1]))
}
