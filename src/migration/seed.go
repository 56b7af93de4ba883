package migration

import (
	"context"
	"fmt"
	"math/rand"
	"strings"
	"time"

	"git.collab.network/collab/src/auth"
	"git.collab.network/collab/src/config"
	"git.collab.network/collab/src/content"
	"git.collab.network/collab/src/contentdata"
	"git.collab.network/collab/src/db"
	"git.collab.network/collab/src/events"
	"git.collab.network/collab/src/models"
	"git.collab.network/collab/src/utils"
	lorem "github.com/HandmadeNetwork/golorem"
	"github.com/jackc/pgx/v5/tracelog"
)

// Seeds the database with sample data for local dev. Mentions in the sample
// content are queued for notification like any other save.
func SampleSeed() {
	Migrate(LatestVersion())

	ctx := context.Background()
	conn := db.NewConnWithConfig(config.PostgresConfig{
		LogLevel: tracelog.LogLevelWarn,
	})
	defer conn.Close(ctx)

	store := contentdata.New(conn)

	queue, err := events.NewQueue(config.Config.Redis)
	if err != nil {
		panic(err)
	}
	service := &content.Service{
		Store:      store,
		Publisher:  queue,
		Authorizer: auth.Policy{},
	}

	fmt.Println("Creating admin user...")
	admin := seedUser(ctx, store, models.User{Username: "admin", Email: "admin@collab.example", IsStaff: true})

	fmt.Println("Creating normal users...")
	alice := seedUser(ctx, store, models.User{Username: "alice", Name: "Alice"})
	bob := seedUser(ctx, store, models.User{Username: "bob", Name: "Bob"})
	charlie := seedUser(ctx, store, models.User{Username: "charlie", Name: "Charlie"})
	users := []*models.User{alice, bob, charlie}

	fmt.Println("Creating projects...")
	projects := []*models.Project{
		seedProject(ctx, store, "Collab", "Where we talk about collab itself."),
		seedProject(ctx, store, "Sandbox", lorem.Sentence(4, 12)),
	}

	for _, project := range projects {
		fmt.Printf("Creating posts in %s...\n", project.Name)
		for i := 0; i < 8; i++ {
			author := users[rand.Intn(len(users))]
			publish := i < 6
			post, err := service.CreatePost(ctx, author, content.PostAttrs{
				ProjectID:       project.ID,
				Title:           utils.P(strings.TrimSuffix(lorem.Sentence(3, 8), ".")),
				MarkdownPreview: utils.P(sampleMarkdown(users)),
			}, publish)
			if err != nil {
				panic(err)
			}

			if !publish {
				continue
			}
			for j := rand.Intn(4); j > 0; j-- {
				commenter := users[rand.Intn(len(users))]
				_, err := service.CreateComment(ctx, commenter, content.CommentAttrs{
					PostID:          post.ID,
					MarkdownPreview: utils.P(sampleMarkdown(users)),
				}, true)
				if err != nil {
					panic(err)
				}
			}
		}
	}

	fmt.Println()
	fmt.Println("Bearer tokens for local testing:")
	for _, user := range append([]*models.User{admin}, users...) {
		token, err := auth.IssueToken(config.Config.Auth, user.ID, user.Username, time.Now())
		if err != nil {
			panic(err)
		}
		fmt.Printf("  %-8s %s\n", user.Username, token)
	}
}

func seedUser(ctx context.Context, store *contentdata.Store, input models.User) *models.User {
	input.Email = utils.OrDefault(input.Email, fmt.Sprintf("%s@example.com", input.Username))
	input.Name = utils.OrDefault(input.Name, randomName())
	if err := store.CreateUser(ctx, &input); err != nil {
		panic(err)
	}
	return &input
}

func seedProject(ctx context.Context, store *contentdata.Store, name, blurb string) *models.Project {
	project := &models.Project{Name: name, Blurb: blurb}
	if err := store.CreateProject(ctx, project); err != nil {
		panic(err)
	}
	return project
}

// A couple of lorem paragraphs, sometimes with a mention or some code.
func sampleMarkdown(users []*models.User) string {
	var paragraphs []string
	for i := rand.Intn(3) + 1; i > 0; i-- {
		paragraphs = append(paragraphs, lorem.Paragraph(1, 4))
	}
	if randomBool() {
		mentioned := users[rand.Intn(len(users))]
		paragraphs = append(paragraphs, fmt.Sprintf("What do you think, @%s?", mentioned.Username))
	}
	if randomBool() {
		paragraphs = append(paragraphs, "```go\nfmt.Println(\""+lorem.Word(3, 8)+"\")\n```")
	}
	return strings.Join(paragraphs, "\n\n")
}

func randomName() string {
	return "John Doe" // chosen by fair dice roll. guaranteed to be random.
}

func randomBool() bool {
	return rand.Intn(2) == 1
}
