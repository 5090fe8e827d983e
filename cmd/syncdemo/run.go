package main

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/teranos/syncproto/errors"
	"github.com/teranos/syncproto/logger"
	"github.com/teranos/syncproto/sync"
	"github.com/teranos/syncproto/sync/testengine"
)

const maxDemoRounds = 50

var scenario string

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Seed two peers and run the sync loop to convergence",
	RunE:  runRun,
}

func init() {
	runCmd.Flags().StringVar(&scenario, "scenario", "one-way",
		"seed scenario for peer A and B: one-way, divergent, already-synced")
}

func runRun(cmd *cobra.Command, args []string) error {
	sessionID := uuid.New().String()
	log := logger.ComponentLogger("syncdemo").With(logger.FieldSessionID, sessionID)

	a, b := testengine.New(), testengine.New()
	if err := seed(scenario, a, b); err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), 10*time.Second)
	defer cancel()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		defer cancel()
		return runToConvergence(gctx, log, a, b)
	})
	g.Go(func() error {
		<-gctx.Done()
		if ctx.Err() == context.DeadlineExceeded {
			return errors.New("sync session did not converge within the deadline")
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		return err
	}

	log.Infow("converged", logger.FieldHeadsCount, len(a.GetHeads()))
	return nil
}

// seed populates peers a and b with the changes the named scenario requires.
func seed(name string, a, b *testengine.Engine) error {
	switch name {
	case "already-synced":
		return nil
	case "one-way":
		x := testengine.NewChange([]byte("X"))
		y := testengine.NewChange([]byte("Y"), x.Hash())
		if err := a.Add(x); err != nil {
			return err
		}
		return a.Add(y)
	case "divergent":
		x := testengine.NewChange([]byte("X"))
		y := testengine.NewChange([]byte("Y"))
		if err := a.Add(x); err != nil {
			return err
		}
		return b.Add(y)
	default:
		return errors.Newf("unknown scenario %q", name)
	}
}

// runToConvergence alternates a generate/receive round between a and b,
// each with their own session state, until a round produces no messages on
// either side or ctx is done.
func runToConvergence(ctx context.Context, log *zap.SugaredLogger, a, b *testengine.Engine) error {
	aState, bState := sync.NewState(), sync.NewState()

	for round := 1; round <= maxDemoRounds; round++ {
		if err := ctx.Err(); err != nil {
			return nil
		}

		sentA, err := step(log, "A", "B", a, b, aState, bState)
		if err != nil {
			return err
		}
		sentB, err := step(log, "B", "A", b, a, bState, aState)
		if err != nil {
			return err
		}

		if !sentA && !sentB {
			log.Infow("quiescent", logger.FieldCount, round-1)
			return nil
		}
	}

	return errors.Newf("did not converge within %d rounds", maxDemoRounds)
}

// step generates a message from src's perspective and, if non-absent,
// applies it directly to dst. The demo runs in-process, so the "transport"
// is a direct function call rather than a socket.
func step(log *zap.SugaredLogger, srcName, dstName string, src, dst *testengine.Engine, srcState, dstState *sync.State) (bool, error) {
	msg := sync.GenerateSyncMessage(src, srcState)
	if msg == nil {
		return false, nil
	}

	log.Infow("sent",
		logger.FieldPeerID, srcName,
		logger.FieldHeadsCount, len(msg.Heads),
		logger.FieldNeedCount, len(msg.Need),
		logger.FieldSentCount, len(msg.Changes),
	)

	if err := sync.ReceiveSyncMessage(dst, dstState, *msg); err != nil {
		return false, errors.Wrapf(err, "receive on %s", dstName)
	}

	return true, nil
}
