package script

import (
	"context"
	"time"

	"github.com/Shopify/go-lua"
	json "github.com/goccy/go-json"
	"golang.org/x/sync/errgroup"

	"github.com/kbukum/kravl/errors"
	"github.com/kbukum/kravl/httpclient"
	"github.com/kbukum/kravl/logger"
	"github.com/kbukum/kravl/pack"
	"github.com/kbukum/kravl/pipeline"
)

// DefaultConcurrency is the number of tasks run at once when unset.
const DefaultConcurrency = 4

// Runner executes tasks. The zero value runs tasks without network access
// and logs nothing.
type Runner struct {
	// Client backs the fetch function. Nil leaves fetch undefined.
	Client *httpclient.Client
	// Concurrency bounds the number of tasks running at once.
	Concurrency int
	// Buffer is the number of emitted packages held before tasks block.
	Buffer int
	Log    *logger.Logger
}

func (r *Runner) logger() *logger.Logger {
	if r.Log == nil {
		return logger.Nop()
	}
	return r.Log.WithComponent("script")
}

// Run executes t, calling emit for every package it emits. Emit errors
// abort the script and are returned unchanged.
func (r *Runner) Run(ctx context.Context, t Task, emit func(*pack.Package) error) error {
	log := r.logger().WithFields(logger.Fields(logger.FieldTask, t.Name))
	start := time.Now()
	emitted := 0
	var emitErr error

	l := lua.NewState()
	setupSandbox(l)

	l.Register("emit", func(l *lua.State) int {
		if err := ctx.Err(); err != nil {
			emitErr = err
			lua.Errorf(l, "%s", err.Error())
		}
		p, err := packageFromArgs(l, t.Name)
		if err != nil {
			lua.Errorf(l, "emit: %s", err.Error())
		}
		if err := emit(p); err != nil {
			emitErr = err
			lua.Errorf(l, "emit: %s", err.Error())
		}
		emitted++
		return 0
	})

	l.Register("log", func(l *lua.State) int {
		log.Info(lua.CheckString(l, 1))
		return 0
	})

	if r.Client != nil {
		client := r.Client
		l.Register("fetch", func(l *lua.State) int {
			data, err := client.Get(ctx, lua.CheckString(l, 1))
			if err != nil {
				l.PushNil()
				l.PushString(err.Error())
				return 2
			}
			l.PushString(string(data))
			return 1
		})
	}

	l.NewTable()
	l.PushString(t.Name)
	l.SetField(-2, "name")
	args := t.Args
	if args == nil {
		args = map[string]any{}
	}
	pushValue(l, args)
	l.SetField(-2, "args")
	l.SetGlobal("task")

	fail := func(stage string, err error) error {
		if emitErr != nil {
			return emitErr
		}
		return errors.Newf(errors.CodeScript, "task %s: %s", t.Name, stage).
			WithCause(err).
			WithDetail(logger.FieldTask, t.Name)
	}

	if err := lua.DoString(l, t.Source); err != nil {
		return fail("load", err)
	}
	l.Global("run")
	if l.TypeOf(-1) == lua.TypeFunction {
		l.Global("task")
		if err := l.ProtectedCall(1, 0, 0); err != nil {
			return fail("run", err)
		}
	} else {
		l.Pop(1)
	}

	log.Debug("task finished", logger.Fields(
		logger.FieldCount, emitted,
		logger.FieldDuration, time.Since(start).Milliseconds(),
	))
	return nil
}

// packageFromArgs builds a package from the arguments of an emit call.
func packageFromArgs(l *lua.State, task string) (*pack.Package, error) {
	name := lua.CheckString(l, 1)
	mimeType := lua.OptString(l, 3, "")

	var data []byte
	switch l.TypeOf(2) {
	case lua.TypeString:
		s, _ := l.ToString(2)
		data = []byte(s)
	case lua.TypeTable, lua.TypeNumber, lua.TypeBoolean:
		encoded, err := json.Marshal(pullValue(l, 2))
		if err != nil {
			return nil, errors.Encode("emitted value", err)
		}
		data = encoded
		if mimeType == "" {
			mimeType = "application/json"
		}
	default:
		lua.ArgumentError(l, 2, "string or table expected")
	}

	p, err := pack.New(name, mimeType, pack.BytesBody(data))
	if err != nil {
		return nil, err
	}
	pack.Insert(&p.Meta, pack.TaskName(task))
	return p, nil
}

// Source returns a source yielding the packages emitted by tasks. Tasks
// run in the background, at most Concurrency at a time. A failing task is
// yielded as an error item and does not stop the others. Closing the
// iterator stops delivery; running scripts fail at their next emit.
func (r *Runner) Source(tasks ...Task) *pipeline.Pipeline[*pack.Package] {
	return pipeline.FromFunc(func(ctx context.Context) pipeline.Iterator[*pack.Package] {
		runCtx, cancel := context.WithCancel(ctx)
		buffer := r.Buffer
		if buffer <= 0 {
			buffer = pipeline.DefaultSpawnBuffer
		}
		limit := r.Concurrency
		if limit <= 0 {
			limit = DefaultConcurrency
		}
		prod := pipeline.NewProducer[*pack.Package](buffer)
		log := r.logger()

		go func() {
			defer prod.Close()
			var g errgroup.Group
			g.SetLimit(limit)
			for _, t := range tasks {
				if runCtx.Err() != nil {
					break
				}
				g.Go(func() error {
					err := r.Run(runCtx, t, func(p *pack.Package) error {
						return prod.Send(runCtx, p)
					})
					if err != nil && runCtx.Err() == nil {
						log.Warn("task failed", logger.ErrorFields(t.Name, err))
						_ = prod.SendErr(runCtx, err)
					}
					return nil
				})
			}
			_ = g.Wait()
		}()

		return &taskIter{Iterator: prod.Source().Iter(ctx), cancel: cancel}
	})
}

type taskIter struct {
	pipeline.Iterator[*pack.Package]
	cancel context.CancelFunc
}

func (it *taskIter) Close() error {
	it.cancel()
	return it.Iterator.Close()
}
