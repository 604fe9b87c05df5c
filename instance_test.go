package toolbake

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// A user drops three files: the files widget is committed, the trigger runs
// the handler, and the handler publishes a preview fragment plus a summary
// while untouched widgets keep their prior values.
func TestInstance_FileDropRendersPreview(t *testing.T) {
	widgets := []WidgetDefinition{
		{ID: "files", Kind: KindFiles},
		{ID: "quality", Kind: KindNumber},
		{ID: "preview", Kind: KindLabel},
		{ID: "summary", Kind: KindText},
	}
	def, err := NewToolDefinition("thumbnailer", "d", widgets, func(_ *Env) Handler {
		return func(_ context.Context, inv Invocation, _ func(Values) error) (Result, error) {
			files := inv.Inputs["files"].Files
			return Result{Values: Values{
				"preview": FragmentValue(attachFragment(fmt.Sprintf("<grid n=%d/>", len(files)), nil)),
				"summary": TextValue(fmt.Sprintf("%d files", len(files))),
			}}, nil
		}
	})
	require.NoError(t, err)
	p, inst, summaries := openWith(t, def, nil)

	c := newRecordingContainer()
	require.NoError(t, inst.BindContainer("preview", c))
	require.NoError(t, inst.Set("quality", NumberValue(80)))

	require.NoError(t, inst.Set("files", FilesValue(
		&FileRef{Name: "a.png"}, &FileRef{Name: "b.png"}, &FileRef{Name: "c.png"},
	)))
	require.NoError(t, inst.Trigger("files"))
	s := recvSummary(t, summaries)
	require.NoError(t, s.Err)

	assert.Equal(t, []string{"<grid n=3/>"}, c.contents)
	summary, ok := inst.Get("summary")
	require.True(t, ok)
	assert.Equal(t, "3 files", summary.Text)
	quality, ok := inst.Get("quality")
	require.True(t, ok)
	assert.Equal(t, 80.0, quality.Number)
	shutdown(t, p)
}

func TestInstance_BindContainerValidation(t *testing.T) {
	widgets := []WidgetDefinition{
		{ID: "in", Kind: KindText},
		{ID: "out", Kind: KindLabel},
	}
	def, err := NewToolDefinition("t", "d", widgets, nopFactory)
	require.NoError(t, err)
	p, inst, _ := openWith(t, def, nil)

	c := newRecordingContainer()
	assert.ErrorIs(t, inst.BindContainer("nope", c), ErrWidgetNotFound)
	assert.ErrorIs(t, inst.BindContainer("in", c), ErrInvalidWidgetValue)
	assert.NoError(t, inst.BindContainer("out", c))
	shutdown(t, p)
}

func TestInstance_SetValidatesWithoutTriggering(t *testing.T) {
	widgets := []WidgetDefinition{
		{ID: "name", Kind: KindText},
		{ID: "run", Kind: KindBool},
	}
	invoked := make(chan struct{}, 8)
	def, err := NewToolDefinition("t", "d", widgets, func(_ *Env) Handler {
		return func(_ context.Context, _ Invocation, _ func(Values) error) (Result, error) {
			invoked <- struct{}{}
			return Result{}, nil
		}
	})
	require.NoError(t, err)
	p, inst, summaries := openWith(t, def, nil)

	assert.ErrorIs(t, inst.Set("name", BoolValue(true)), ErrInvalidWidgetValue)
	require.NoError(t, inst.Set("name", TextValue("x")))
	select {
	case <-invoked:
		t.Fatal("Set must not schedule an invocation")
	default:
	}

	require.NoError(t, inst.Trigger("run"))
	recvSummary(t, summaries)
	<-invoked
	shutdown(t, p)
}

func TestInstance_CloseIsIdempotent(t *testing.T) {
	widgets := []WidgetDefinition{{ID: "out", Kind: KindLabel}}
	def, err := NewToolDefinition("t", "d", widgets, func(_ *Env) Handler {
		return func(_ context.Context, _ Invocation, _ func(Values) error) (Result, error) {
			return Result{Values: Values{
				"out": FragmentValue(attachFragment("<p/>", nil)),
			}}, nil
		}
	})
	require.NoError(t, err)

	p := NewPlatform()
	p.Register(def)
	inst, err := p.Open("t")
	require.NoError(t, err)

	inst.Close()
	inst.Close()
	assert.ErrorIs(t, inst.Trigger("out"), ErrInstanceClosed)
	assert.ErrorIs(t, inst.Init(), ErrInstanceClosed)
	shutdown(t, p)
}

// The instance id is minted at Open and visible to the handler through Env.
func TestInstance_EnvExposesID(t *testing.T) {
	widgets := []WidgetDefinition{{ID: "run", Kind: KindBool}}
	got := make(chan string, 1)
	def, err := NewToolDefinition("t", "d", widgets, func(env *Env) Handler {
		id := env.InstanceID()
		return func(_ context.Context, _ Invocation, _ func(Values) error) (Result, error) {
			got <- id
			return Result{}, nil
		}
	})
	require.NoError(t, err)
	p, inst, summaries := openWith(t, def, nil)

	require.NoError(t, inst.Trigger("run"))
	recvSummary(t, summaries)
	assert.Equal(t, inst.ID(), <-got)
	assert.Equal(t, "t", inst.Tool())
	shutdown(t, p)
}
