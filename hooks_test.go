package wirebox_test

import (
	"context"
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wirebox/wirebox"
	"github.com/wirebox/wirebox/internal/testtypes"
	"github.com/wirebox/wirebox/internal/testutil"
)

func Test_HookKind_String(t *testing.T) {
	assert.Equal(t, "GetInstance", wirebox.GetInstance.String())
	assert.Equal(t, "PostInjectionCall", wirebox.PostInjectionCall.String())
	assert.Contains(t, wirebox.HookKind(200).String(), "Unknown")
}

func Test_Hooks_Handle(t *testing.T) {
	t.Run("first some wins", func(t *testing.T) {
		r := wirebox.NewRegistry()

		calls := 0
		err := r.AddHook(wirebox.GetInstance, func(_ context.Context, _ *wirebox.Container, _ any, hc *wirebox.HookContext) (wirebox.Option[any], error) {
			calls++
			if hc.Type == testtypes.TypeConfig {
				return wirebox.Some[any](&testtypes.Config{Name: "hooked"}), nil
			}
			return wirebox.Nothing[any]("not mine"), nil
		})
		require.NoError(t, err)

		err = r.AddHook(wirebox.GetInstance, func(context.Context, *wirebox.Container, any, *wirebox.HookContext) (wirebox.Option[any], error) {
			t.Fatal("second hook must not run once the first answers")
			return wirebox.Nothing[any](""), nil
		})
		require.NoError(t, err)

		c := r.NewContainer()
		cfg, err := wirebox.Get[*testtypes.Config](context.Background(), c)
		require.NoError(t, err)
		assert.Equal(t, "hooked", cfg.Name)
		assert.Equal(t, 1, calls)
	})

	t.Run("hook supplied instances are not cached", func(t *testing.T) {
		r := wirebox.NewRegistry()

		calls := 0
		err := r.AddHook(wirebox.GetInstance, func(context.Context, *wirebox.Container, any, *wirebox.HookContext) (wirebox.Option[any], error) {
			calls++
			return wirebox.Some[any](&testtypes.Config{Name: "hooked"}), nil
		})
		require.NoError(t, err)

		c := r.NewContainer()
		ctx := context.Background()

		_, err = wirebox.Get[*testtypes.Config](ctx, c)
		require.NoError(t, err)
		_, err = wirebox.Get[*testtypes.Config](ctx, c)
		require.NoError(t, err)

		// The hook owns caching; it is consulted every time.
		assert.Equal(t, 2, calls)
	})

	t.Run("hook error propagates", func(t *testing.T) {
		r := wirebox.NewRegistry()

		err := r.AddHook(wirebox.GetInstance, func(context.Context, *wirebox.Container, any, *wirebox.HookContext) (wirebox.Option[any], error) {
			return wirebox.Nothing[any](""), assert.AnError
		})
		require.NoError(t, err)

		c := r.NewContainer()
		_, err = wirebox.Get[*testtypes.Config](context.Background(), c)
		testutil.LogError(t, err)
		assert.ErrorIs(t, err, assert.AnError)
	})
}

func Test_Hooks_Filter(t *testing.T) {
	t.Run("got instance transforms in order", func(t *testing.T) {
		r := wirebox.NewRegistry()
		require.NoError(t, r.AddFactory(testtypes.NewConfig))

		err := r.AddHook(wirebox.GotInstance, func(_ context.Context, _ *wirebox.Container, value any, _ *wirebox.HookContext) (wirebox.Option[any], error) {
			cfg := value.(*testtypes.Config)
			cfg.Name += "-a"
			return wirebox.Some[any](cfg), nil
		})
		require.NoError(t, err)

		err = r.AddHook(wirebox.GotInstance, func(_ context.Context, _ *wirebox.Container, value any, _ *wirebox.HookContext) (wirebox.Option[any], error) {
			cfg := value.(*testtypes.Config)
			cfg.Name += "-b"
			return wirebox.Some[any](cfg), nil
		})
		require.NoError(t, err)

		c := r.NewContainer()
		cfg, err := wirebox.Get[*testtypes.Config](context.Background(), c)
		require.NoError(t, err)
		assert.Equal(t, "default-a-b", cfg.Name)
	})

	t.Run("nothing leaves value unchanged", func(t *testing.T) {
		r := wirebox.NewRegistry()
		require.NoError(t, r.AddFactory(testtypes.NewConfig))

		err := r.AddHook(wirebox.GotInstance, func(context.Context, *wirebox.Container, any, *wirebox.HookContext) (wirebox.Option[any], error) {
			return wirebox.Nothing[any]("just watching"), nil
		})
		require.NoError(t, err)

		c := r.NewContainer()
		cfg, err := wirebox.Get[*testtypes.Config](context.Background(), c)
		require.NoError(t, err)
		assert.Equal(t, "default", cfg.Name)
	})

	t.Run("created instance fires only on creation", func(t *testing.T) {
		r := wirebox.NewRegistry()
		require.NoError(t, r.AddFactory(testtypes.NewConfig))

		created := 0
		err := r.AddHook(wirebox.CreatedInstance, func(_ context.Context, _ *wirebox.Container, value any, _ *wirebox.HookContext) (wirebox.Option[any], error) {
			created++
			return wirebox.Nothing[any](""), nil
		})
		require.NoError(t, err)

		c := r.NewContainer()
		ctx := context.Background()

		_, err = wirebox.Get[*testtypes.Config](ctx, c)
		require.NoError(t, err)
		_, err = wirebox.Get[*testtypes.Config](ctx, c)
		require.NoError(t, err)

		assert.Equal(t, 1, created)
	})
}

func Test_Hooks_HandleUnsupported(t *testing.T) {
	r := wirebox.NewRegistry()

	err := r.AddHook(wirebox.HandleUnsupportedDependency, func(_ context.Context, _ *wirebox.Container, _ any, hc *wirebox.HookContext) (wirebox.Option[any], error) {
		if hc.Type == testtypes.TypeMailer {
			return wirebox.Some[any](&testtypes.Mailer{From: "hook@example.com"}), nil
		}
		return wirebox.Nothing[any](""), nil
	})
	require.NoError(t, err)

	c := r.NewContainer()
	ctx := context.Background()

	t.Run("supplies unregistered type", func(t *testing.T) {
		m, err := wirebox.Get[*testtypes.Mailer](ctx, c)
		require.NoError(t, err)
		assert.Equal(t, "hook@example.com", m.From)
	})

	t.Run("still fails for other types", func(t *testing.T) {
		_, err := wirebox.Get[*testtypes.Database](ctx, c)
		testutil.LogError(t, err)
		assert.ErrorIs(t, err, wirebox.ErrNotResolved)
	})
}

func Test_Hooks_Async(t *testing.T) {
	t.Run("async hook bridges synchronous get", func(t *testing.T) {
		r := wirebox.NewRegistry()

		err := r.AddHook(wirebox.GetInstance, func(context.Context, *wirebox.Container, any, *wirebox.HookContext) (wirebox.Option[any], error) {
			return wirebox.Some[any](&testtypes.Config{Name: "async"}), nil
		}, wirebox.Async())
		require.NoError(t, err)

		c := r.NewContainer()
		cfg, err := wirebox.Get[*testtypes.Config](context.Background(), c)
		require.NoError(t, err)
		assert.Equal(t, "async", cfg.Name)
	})

	t.Run("async hook applies to cached instances", func(t *testing.T) {
		r := wirebox.NewRegistry()

		err := r.AddHook(wirebox.GotInstance, func(_ context.Context, _ *wirebox.Container, val any, _ *wirebox.HookContext) (wirebox.Option[any], error) {
			cfg := val.(*testtypes.Config)
			return wirebox.Some[any](&testtypes.Config{Name: cfg.Name + "-seen"}), nil
		}, wirebox.Async())
		require.NoError(t, err)

		c := r.NewContainer()
		require.NoError(t, c.Add(&testtypes.Config{Name: "cached"}))

		cfg, err := wirebox.Get[*testtypes.Config](context.Background(), c)
		require.NoError(t, err)
		assert.Equal(t, "cached-seen", cfg.Name)
	})

	t.Run("await runs async hooks inline", func(t *testing.T) {
		r := wirebox.NewRegistry()

		err := r.AddHook(wirebox.GetInstance, func(context.Context, *wirebox.Container, any, *wirebox.HookContext) (wirebox.Option[any], error) {
			return wirebox.Some[any](&testtypes.Config{Name: "async"}), nil
		}, wirebox.Async())
		require.NoError(t, err)

		c := r.NewContainer()
		cfg, err := wirebox.Await[*testtypes.Config](context.Background(), c)
		require.NoError(t, err)
		assert.Equal(t, "async", cfg.Name)
	})
}

func Test_Hooks_ContextValues(t *testing.T) {
	r := wirebox.NewRegistry()

	var got any
	err := r.AddHook(wirebox.GetInstance, func(_ context.Context, _ *wirebox.Container, _ any, hc *wirebox.HookContext) (wirebox.Option[any], error) {
		got = hc.Values["tenant"]
		return wirebox.Some[any](&testtypes.Config{Name: "hooked"}), nil
	})
	require.NoError(t, err)

	c := r.NewContainer()
	_, err = wirebox.Get[*testtypes.Config](context.Background(), c, wirebox.WithContextValue("tenant", "acme"))
	require.NoError(t, err)
	assert.Equal(t, "acme", got)
}

func Test_Hooks_FactoryMissingType(t *testing.T) {
	t.Run("hook supplies the type", func(t *testing.T) {
		r := wirebox.NewRegistry()

		err := r.AddHook(wirebox.FactoryMissingType, func(context.Context, *wirebox.Container, any, *wirebox.HookContext) (wirebox.Option[any], error) {
			return wirebox.Some[any](reflect.TypeFor[*testtypes.Config]()), nil
		})
		require.NoError(t, err)

		err = r.AddFactory(func() any {
			return &testtypes.Config{Name: "inferred"}
		})
		require.NoError(t, err)

		c := r.NewContainer()
		cfg, err := wirebox.Get[*testtypes.Config](context.Background(), c)
		require.NoError(t, err)
		assert.Equal(t, "inferred", cfg.Name)
	})

	t.Run("no hook answer fails registration", func(t *testing.T) {
		r := wirebox.NewRegistry()

		err := r.AddFactory(func() any {
			return &testtypes.Config{}
		})
		testutil.LogError(t, err)
		assert.ErrorIs(t, err, wirebox.ErrInvalidDependency)
	})
}
