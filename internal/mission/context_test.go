package mission

import (
	"log/slog"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestContext_Defaults(t *testing.T) {
	ctx := NewContext()

	id, name := ctx.Current()
	assert.Empty(t, id)
	assert.Equal(t, NoMission, name)
	assert.False(t, ctx.Editing())
	assert.Equal(t, []slog.Attr{slog.String("missionName", NoMission)}, ctx.Attrs())
}

func TestContext_SetAndClear(t *testing.T) {
	ctx := NewContext()

	ctx.Set("m-42", "Supply Run")
	assert.True(t, ctx.Editing())
	assert.Equal(t, []slog.Attr{
		slog.String("missionName", "Supply Run"),
		slog.String("missionId", "m-42"),
	}, ctx.Attrs())

	ctx.Clear()
	id, _ := ctx.Current()
	assert.Empty(t, id)
	assert.False(t, ctx.Editing())
}

func TestContext_ThreadSafe(t *testing.T) {
	ctx := NewContext()
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			ctx.Set("m-1", "Patrol")
		}()
		go func() {
			defer wg.Done()
			_ = ctx.Attrs()
		}()
	}
	wg.Wait()

	_, name := ctx.Current()
	assert.Equal(t, "Patrol", name)
}
