package edgecmp

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		opts    []Option
		wantErr bool
	}{
		{name: "defaults", opts: nil},
		{name: "lower bounds", opts: []Option{WithMatchPercent(0), WithLineThreshold(0), WithSamplePercent(0), WithNearMatchRadius(0), WithScalePercent(1)}},
		{name: "upper bounds", opts: []Option{WithMatchPercent(100), WithLineThreshold(255), WithSamplePercent(100), WithNearMatchRadius(50), WithScalePercent(100)}},
		{name: "match percent above 100", opts: []Option{WithMatchPercent(101)}, wantErr: true},
		{name: "match percent negative", opts: []Option{WithMatchPercent(-1)}, wantErr: true},
		{name: "line threshold above 255", opts: []Option{WithLineThreshold(256)}, wantErr: true},
		{name: "line threshold negative", opts: []Option{WithLineThreshold(-1)}, wantErr: true},
		{name: "sample percent above 100", opts: []Option{WithSamplePercent(101)}, wantErr: true},
		{name: "negative radius", opts: []Option{WithNearMatchRadius(-2)}, wantErr: true},
		{name: "zero scale", opts: []Option{WithScalePercent(0)}, wantErr: true},
		{name: "scale above 100", opts: []Option{WithScalePercent(150)}, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewConfig(tt.opts...)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, errors.Is(err, ErrConfig), "got %v", err)
				return
			}
			require.NoError(t, err)
		})
	}
}

func TestConfigWithDoesNotMutate(t *testing.T) {
	base := DefaultConfig()
	changed, err := base.With(WithMatchPercent(50), WithNearMatchRadius(1))
	require.NoError(t, err)

	assert.Equal(t, 50, changed.MatchPercent)
	assert.Equal(t, 1, changed.NearMatchRadius)
	assert.Equal(t, DefaultMatchPercent, base.MatchPercent)
	assert.Equal(t, DefaultNearMatchRadius, base.NearMatchRadius)
}

func TestConfigWithRejectsInvalid(t *testing.T) {
	cfg, err := DefaultConfig().With(WithLineThreshold(300))
	require.Error(t, err)
	assert.Equal(t, Config{}, cfg)
}

func TestNewRejectsInvalidConfig(t *testing.T) {
	cfg := DefaultConfig()
	cfg.SamplePercent = 200
	_, err := New(cfg, nil)
	assert.True(t, errors.Is(err, ErrConfig))
}
