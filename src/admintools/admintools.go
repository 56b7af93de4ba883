package admintools

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"time"

	"git.collab.network/collab/src/config"
	"git.collab.network/collab/src/contentdata"
	"git.collab.network/collab/src/db"
	"git.collab.network/collab/src/email"
	"git.collab.network/collab/src/events"
	"git.collab.network/collab/src/models"
	"git.collab.network/collab/src/notifications"
	"git.collab.network/collab/src/website"
	"github.com/spf13/cobra"
)

func init() {
	adminCommand := &cobra.Command{
		Use:   "admin",
		Short: "Miscellaneous admin commands",
	}
	website.WebsiteCommand.AddCommand(adminCommand)

	createUserCommand := &cobra.Command{
		Use:   "createuser [username] [email]",
		Short: "Creates a new user",
		Run: func(cmd *cobra.Command, args []string) {
			if len(args) < 2 {
				fmt.Printf("You must provide a username and an email address.\n\n")
				cmd.Usage()
				os.Exit(1)
			}
			if !email.IsEmail(args[1]) {
				fmt.Printf("'%s' is not an email address.\n", args[1])
				os.Exit(1)
			}

			ctx := context.Background()
			conn := db.NewConn()
			defer conn.Close(ctx)

			user := models.User{Username: args[0], Email: args[1]}
			if err := contentdata.New(conn).CreateUser(ctx, &user); err != nil {
				fmt.Printf("Failed to create user: %v\n", err)
				os.Exit(1)
			}

			fmt.Printf("User '%s' created with id %d.\n", user.Username, user.ID)
		},
	}
	adminCommand.AddCommand(createUserCommand)

	userSetAdminCommand := &cobra.Command{
		Use:   "usersetadmin [username] [true/false]",
		Short: "Toggle the user's staff privileges",
		Run: func(cmd *cobra.Command, args []string) {
			if len(args) < 2 {
				fmt.Printf("You must provide a username and 'true' or 'false'.\n\n")
				cmd.Usage()
				os.Exit(1)
			}

			username := args[0]
			isStaff, err := strconv.ParseBool(args[1])
			if err != nil {
				fmt.Printf("'%s' is not a boolean.\n", args[1])
				os.Exit(1)
			}

			ctx := context.Background()
			conn := db.NewConn()
			defer conn.Close(ctx)

			res, err := conn.Exec(ctx, "UPDATE collab_user SET is_staff = $1 WHERE LOWER(username) = LOWER($2)", isStaff, username)
			if err != nil {
				panic(err)
			}
			if res.RowsAffected() == 0 {
				fmt.Printf("User not found.\n\n")
				os.Exit(1)
			}

			fmt.Printf("Set is_staff to %v for '%s'.\n", isStaff, username)
		},
	}
	adminCommand.AddCommand(userSetAdminCommand)

	sendTestMailCommand := &cobra.Command{
		Use:   "sendtestmail [toAddress] [toName]",
		Short: "Sends a test mention notification",
		Run: func(cmd *cobra.Command, args []string) {
			if len(args) < 2 {
				fmt.Printf("You must provide the recipient's address and name.\n\n")
				cmd.Usage()
				os.Exit(1)
			}

			err := email.NewDeliverer(config.Config.Email).Deliver(context.Background(), testMessage(args[0], args[1]))
			if err != nil {
				fmt.Printf("Failed to send test mail: %v\n", err)
				os.Exit(1)
			}
			fmt.Println("Sent.")
		},
	}
	adminCommand.AddCommand(sendTestMailCommand)

	sweepCommand := &cobra.Command{
		Use:   "sweepnotifications",
		Short: "Queue every entity with undelivered mention notifications",
		Run: func(cmd *cobra.Command, args []string) {
			ctx := context.Background()
			conn := db.NewConn()
			defer conn.Close(ctx)

			if config.Config.Redis.Url == "" {
				fmt.Println("Redis is not configured; there is no queue for a running server to read from.")
				os.Exit(1)
			}
			queue, err := events.NewQueue(config.Config.Redis)
			if err != nil {
				panic(err)
			}

			n, err := notifications.Sweep(ctx, contentdata.New(conn), queue, time.Now())
			if err != nil {
				panic(err)
			}
			fmt.Printf("Queued %d entities.\n", n)
		},
	}
	adminCommand.AddCommand(sweepCommand)

	addProjectCommands(adminCommand)
}

func testMessage(toAddress, toName string) notifications.Message {
	return notifications.Message{
		Recipient: &models.User{Username: toName, Name: toName, Email: toAddress},
		Subject: &notifications.Subject{
			Kind:       models.ContentKindComment,
			PostTitle:  "A test post",
			AuthorName: "Collab Admin",
			Markdown:   fmt.Sprintf("Hello @%s, this is a test of mention emails.", toName),
		},
		Notification: &models.Notification{State: models.NotificationStatePending},
		URL:          config.Config.BaseUrl,
	}
}

func addProjectCommands(adminCommand *cobra.Command) {
	projectCommand := &cobra.Command{
		Use:   "project",
		Short: "Admin commands for managing projects",
	}
	adminCommand.AddCommand(projectCommand)

	createProjectCommand := &cobra.Command{
		Use:   "create",
		Short: "Create a new project",
		Run: func(cmd *cobra.Command, args []string) {
			name, _ := cmd.Flags().GetString("name")
			slug, _ := cmd.Flags().GetString("slug")
			blurb, _ := cmd.Flags().GetString("blurb")

			ctx := context.Background()
			conn := db.NewConn()
			defer conn.Close(ctx)

			project := models.Project{Name: name, Slug: slug, Blurb: blurb}
			if err := contentdata.New(conn).CreateProject(ctx, &project); err != nil {
				panic(err)
			}

			fmt.Printf("Project '%s' created with id %d and slug '%s'.\n", project.Name, project.ID, project.Slug)
		},
	}
	createProjectCommand.Flags().String("name", "", "")
	createProjectCommand.Flags().String("slug", "", "Generated from the name if empty")
	createProjectCommand.Flags().String("blurb", "", "")
	createProjectCommand.MarkFlagRequired("name")
	projectCommand.AddCommand(createProjectCommand)
}
