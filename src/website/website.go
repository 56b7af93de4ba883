package website

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"time"

	"git.collab.network/collab/src/auth"
	"git.collab.network/collab/src/config"
	"git.collab.network/collab/src/content"
	"git.collab.network/collab/src/contentdata"
	"git.collab.network/collab/src/db"
	"git.collab.network/collab/src/email"
	"git.collab.network/collab/src/events"
	"git.collab.network/collab/src/jobs"
	"git.collab.network/collab/src/logging"
	"git.collab.network/collab/src/notifications"
	"github.com/spf13/cobra"
)

var WebsiteCommand = &cobra.Command{
	Short: "Run the collab server",
	Run: func(cmd *cobra.Command, args []string) {
		defer logging.LogPanics(nil)
		logging.Info().Msg("Hello, collab!")

		var wg sync.WaitGroup

		conn := db.NewConnPool()
		store := contentdata.New(conn)

		queue, err := events.NewQueue(config.Config.Redis)
		if err != nil {
			panic(err)
		}
		if !config.Config.Email.Configured() {
			logging.Warn().Msg("Email is not configured; mention notifications will fail to deliver")
		}

		service := &content.Service{
			Store:      store,
			Publisher:  queue,
			Authorizer: auth.Policy{},
		}
		worker := notifications.NewWorker(store, email.NewDeliverer(config.Config.Email), config.Config)

		// Start background jobs
		wg.Add(1)
		backgroundJobs := jobs.Jobs{
			notifications.RunDispatcher(context.Background(), queue, worker, config.Config.Notifications.Workers),
			notifications.RunSweeper(context.Background(), store, queue, config.Config.Notifications.SweepInterval),
		}

		// Create HTTP server
		wg.Add(1)
		server := http.Server{
			Addr: config.Config.Addr,
			Handler: NewWebsiteRoutes(Deps{
				Content: service,
				Auth:    config.Config.Auth,
				BaseUrl: config.Config.BaseUrl,
			}),
		}
		go func() {
			logging.Info().Str("addr", config.Config.Addr).Msg("Serving the API")
			serverErr := server.ListenAndServe()
			if !errors.Is(serverErr, http.ErrServerClosed) {
				logging.Error().Err(serverErr).Msg("Server shut down unexpectedly")
			}
			// The wg.Done() happens in the shutdown logic below.
		}()

		// Wait for SIGINT in the background and trigger graceful shutdown
		signals := make(chan os.Signal, 1)
		signal.Notify(signals, os.Interrupt)
		go func() {
			<-signals // First SIGINT (start shutdown)
			logging.Info().Msg("Shutting down")

			const timeout = 10 * time.Second

			go func() {
				logging.Info().Msg("Shutting down background jobs...")
				unfinished := backgroundJobs.CancelAndWait(timeout)
				if len(unfinished) == 0 {
					logging.Info().Msg("Background jobs closed gracefully")
				} else {
					logging.Warn().Strs("Unfinished", unfinished).Msg("Background jobs did not finish by the deadline")
				}
				wg.Done()
			}()

			// Gracefully shut down the HTTP server
			go func() {
				timeoutCtx, cancel := context.WithTimeout(context.Background(), timeout)
				defer cancel()
				err := server.Shutdown(timeoutCtx)
				if err != nil {
					logging.Warn().Err(err).Msg("Server did not shut down gracefully")
				}
				wg.Done()
			}()

			<-signals // Second SIGINT (force quit)
			logging.Warn().Strs("Unfinished background jobs", backgroundJobs.ListUnfinished()).Msg("Forcibly killed the server")
			os.Exit(1)
		}()

		// Wait for all of the above to finish, then exit
		wg.Wait()
	},
}

func init() {
	tokenCommand := &cobra.Command{
		Use:   "token <username>",
		Short: "Issue a bearer token for an existing user, for local testing",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			ctx := context.Background()
			conn := db.NewConn()
			defer conn.Close(ctx)

			user, err := contentdata.New(conn).FetchUserByUsername(ctx, args[0])
			if err != nil {
				fmt.Printf("ERROR: %v\n", err)
				os.Exit(1)
			}

			token, err := auth.IssueToken(config.Config.Auth, user.ID, user.Username, time.Now())
			if err != nil {
				fmt.Printf("ERROR: %v\n", err)
				os.Exit(1)
			}
			fmt.Println(token)
		},
	}
	WebsiteCommand.AddCommand(tokenCommand)
}
