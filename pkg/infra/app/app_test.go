package app

import (
	"context"
	"errors"
	"io"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeOptions struct {
	name        string
	completed   bool
	validateErr error
}

func (o *fakeOptions) AddFlags(fs *pflag.FlagSet) {
	fs.StringVar(&o.name, "name", "default", "name")
}

func (o *fakeOptions) Complete() error {
	o.completed = true
	return nil
}

func (o *fakeOptions) Validate() error { return o.validateErr }

func newTestApp(opts ...Option) *App {
	a := NewApp(append([]Option{WithName("test"), WithNoVersion()}, opts...)...)
	a.SetOutput(io.Discard, io.Discard)
	return a
}

func TestAppRunsWithOptions(t *testing.T) {
	o := &fakeOptions{}
	var ran bool
	a := newTestApp(WithOptions(o), WithRunFunc(func(ctx context.Context) error {
		ran = true
		assert.NotNil(t, ctx)
		return nil
	}))

	require.NoError(t, a.Execute(context.Background(), []string{"--name", "x", "-c", "custom.toml"}))
	assert.True(t, ran)
	assert.True(t, o.completed)
	assert.Equal(t, "x", o.name)
	assert.Equal(t, "custom.toml", a.ConfigFile())
}

func TestAppDefaultConfigFile(t *testing.T) {
	a := newTestApp()
	require.NoError(t, a.Execute(context.Background(), nil))
	assert.Equal(t, DefaultConfigFile, a.ConfigFile())
}

func TestAppValidationStopsRun(t *testing.T) {
	want := errors.New("bad option")
	a := newTestApp(
		WithOptions(&fakeOptions{validateErr: want}),
		WithRunFunc(func(context.Context) error {
			t.Fatal("run must not be called")
			return nil
		}),
	)

	assert.ErrorIs(t, a.Execute(context.Background(), nil), want)
}

func TestAppSubcommandSeesConfigFlag(t *testing.T) {
	var sub string
	var got string
	var a *App
	cmd := &cobra.Command{
		Use:  "child",
		Args: cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			sub = args[0]
			got = a.ConfigFile()
			return nil
		},
	}
	a = newTestApp(WithCommands(cmd))

	require.NoError(t, a.Execute(context.Background(), []string{"child", "arg", "--config", "other.toml"}))
	assert.Equal(t, "arg", sub)
	assert.Equal(t, "other.toml", got)
}
