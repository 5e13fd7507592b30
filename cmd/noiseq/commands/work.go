package commands

import (
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/robfig/cron/v3"
	"github.com/spf13/cobra"

	"github.com/seismolab/noiseq/errors"
	"github.com/seismolab/noiseq/jobs"
	"github.com/seismolab/noiseq/logger"
	"github.com/seismolab/noiseq/params"
	"github.com/seismolab/noiseq/worker"
)

// WorkCmd runs the worker daemon.
var WorkCmd = &cobra.Command{
	Use:   "work",
	Short: "Run the worker daemon",
	Long: `Run the worker daemon: claim jobs, execute them through external
processing programs, and record the outcomes.

Each --exec flag binds a job type to a program, as TYPE=PROGRAM or
TYPE=PROGRAM>FOLLOWUP to requeue a follow-up job type for the same
(day, pair) after success. The program receives the job through the
NOISEQ_JOB_TYPE, NOISEQ_DAY and NOISEQ_PAIR environment variables.

Stale claims from dead workers are recovered at startup. If sync.schedule
is set in the configuration, missing jobs are regenerated on that cron
schedule while the daemon runs.

The daemon runs until interrupted; in-flight jobs get a grace period to
finish, and anything still running is failed back to TODO.

Examples:
  noiseq work --exec 'CC=./compute-cc.sh>STACK' --exec STACK=./stack.sh
  noiseq work --exec CC=./compute-cc.sh --workers 4`,
	RunE: runWork,
}

var (
	workExecFlags   []string
	workWorkersFlag int
)

func init() {
	WorkCmd.Flags().StringSliceVar(&workExecFlags, "exec", nil,
		"Job type to program binding, TYPE=PROGRAM or TYPE=PROGRAM>FOLLOWUP (repeatable, required)")
	WorkCmd.Flags().IntVar(&workWorkersFlag, "workers", 0,
		"Concurrent workers (default: worker.workers from configuration)")
	WorkCmd.MarkFlagRequired("exec")
}

// parseExecFlag splits TYPE=PROGRAM[>FOLLOWUP] into a handler.
func parseExecFlag(spec string) (*worker.CommandHandler, error) {
	jobType, program, found := strings.Cut(spec, "=")
	if !found || jobType == "" || program == "" {
		return nil, errors.Newf("invalid --exec %q, expected TYPE=PROGRAM", spec)
	}
	program, followUp, _ := strings.Cut(program, ">")
	return worker.NewCommandHandler(jobType, followUp, program)
}

func runWork(cmd *cobra.Command, args []string) error {
	cfg, err := params.Load()
	if err != nil {
		return err
	}

	registry := worker.NewRegistry()
	for _, spec := range workExecFlags {
		handler, err := parseExecFlag(spec)
		if err != nil {
			return err
		}
		if err := registry.Register(handler); err != nil {
			return err
		}
	}

	database, err := openDatabase("")
	if err != nil {
		return err
	}
	defer database.Close()

	workerCfg := cfg.Worker
	if workWorkersFlag > 0 {
		workerCfg.Workers = workWorkersFlag
	}

	store := jobs.NewSQLStore(database)
	pool := worker.NewPool(cmd.Context(), store, registry, workerCfg)

	// Periodic regeneration keeps the queue topped up as the configured
	// date range moves forward.
	var scheduler *cron.Cron
	if cfg.Sync.Schedule != "" {
		scheduler = cron.New()
		_, err := scheduler.AddFunc(cfg.Sync.Schedule, func() {
			for _, jobType := range registry.Types() {
				if _, err := syncJobs(cmd.Context(), database, jobType); err != nil {
					logger.Errorw("Scheduled sync failed", "job_type", jobType, "error", err)
				}
			}
		})
		if err != nil {
			return errors.Wrapf(err, "invalid sync schedule %q", cfg.Sync.Schedule)
		}
		scheduler.Start()
		logger.Infow("Scheduled periodic job generation", "schedule", cfg.Sync.Schedule)
	}

	pool.Start()
	fmt.Printf("Worker daemon started as %s with %d worker(s), Ctrl+C to stop\n",
		pool.WorkerID(), workerCfg.Workers)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	fmt.Println("Shutting down, waiting for in-flight jobs...")
	if scheduler != nil {
		<-scheduler.Stop().Done()
	}
	pool.Stop()
	return nil
}
