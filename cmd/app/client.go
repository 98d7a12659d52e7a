package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/urfave/cli/v3"

	"github.com/starford/dsaflash/internal"
	"github.com/starford/dsaflash/internal/forms"
	"github.com/starford/dsaflash/internal/localcache"
	"github.com/starford/dsaflash/internal/models"
	"github.com/starford/dsaflash/internal/notes"
	"github.com/starford/dsaflash/internal/state"
)

type clientAction func(ctx context.Context, cmd *cli.Command, app *internal.ClientApp) error

// withClient opens the client side and loads the catalogue before running fn.
// Remote failures are absorbed by the storage layer, so a down server only
// shows up as a warning in the log.
func withClient(fn clientAction) cli.ActionFunc {
	return func(ctx context.Context, cmd *cli.Command) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		app, err := internal.OpenClient(cfg, os.Stderr)
		if err != nil {
			return err
		}
		if err := app.State.LoadAll(ctx); err != nil {
			return fmt.Errorf("load catalogue: %w", err)
		}
		return fn(ctx, cmd, app)
	}
}

func requireArgs(cmd *cli.Command, names ...string) ([]string, error) {
	if cmd.NArg() < len(names) {
		return nil, fmt.Errorf("usage: %s %s", cmd.Name, "<"+strings.Join(names, "> <")+">")
	}
	out := make([]string, len(names))
	for i := range names {
		out[i] = cmd.Args().Get(i)
	}
	return out, nil
}

// optional returns a pointer to the flag value when the flag was given.
func optional(cmd *cli.Command, name string) *string {
	if !cmd.IsSet(name) {
		return nil
	}
	v := cmd.String(name)
	return &v
}

func topicsCommand() *cli.Command {
	return &cli.Command{
		Name:   "topics",
		Usage:  "List and manage topics",
		Action: withClient(listTopics),
		Commands: []*cli.Command{
			{
				Name:   "list",
				Usage:  "List topics with problem counts",
				Action: withClient(listTopics),
			},
			{
				Name:  "add",
				Usage: "Create a topic",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "name", Required: true},
					&cli.StringFlag{Name: "description", Required: true},
					&cli.StringFlag{Name: "category", Usage: "Data Structures, Algorithms, Techniques"},
					&cli.StringFlag{Name: "icon", Usage: "icon name, e.g. ShareIcon"},
				},
				Action: withClient(addTopic),
			},
			{
				Name:      "edit",
				Usage:     "Update fields of a topic",
				ArgsUsage: "<topic-id>",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "name"},
					&cli.StringFlag{Name: "description"},
					&cli.StringFlag{Name: "category"},
					&cli.StringFlag{Name: "icon"},
				},
				Action: withClient(editTopic),
			},
			{
				Name:      "delete",
				Usage:     "Delete a topic with its problems and note",
				ArgsUsage: "<topic-id>",
				Action:    withClient(deleteTopic),
			},
		},
	}
}

func listTopics(_ context.Context, _ *cli.Command, app *internal.ClientApp) error {
	return renderTopics(os.Stdout, app.State, app.State.Topics())
}

func addTopic(ctx context.Context, cmd *cli.Command, app *internal.ClientApp) error {
	form := forms.TopicForm{
		Name:        cmd.String("name"),
		Description: cmd.String("description"),
		Category:    cmd.String("category"),
		Icon:        cmd.String("icon"),
	}
	if err := form.Validate(); err != nil {
		return err
	}
	t, err := app.State.AddTopic(ctx, form.Topic(time.Now()))
	if err != nil {
		return err
	}
	fmt.Printf("created topic %s (%s)\n", t.Name, t.ID)
	return nil
}

func editTopic(ctx context.Context, cmd *cli.Command, app *internal.ClientApp) error {
	args, err := requireArgs(cmd, "topic-id")
	if err != nil {
		return err
	}
	patch := models.TopicPatch{
		Name:        optional(cmd, "name"),
		Description: optional(cmd, "description"),
		Category:    optional(cmd, "category"),
		Icon:        optional(cmd, "icon"),
	}
	for field, v := range map[string]*string{"name": patch.Name, "description": patch.Description} {
		if v != nil && strings.TrimSpace(*v) == "" {
			return fmt.Errorf("%s: cannot be blank", field)
		}
	}
	t, ok, err := app.State.UpdateTopic(ctx, args[0], patch)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("topic %s not found", args[0])
	}
	fmt.Printf("updated topic %s (%s)\n", t.Name, t.ID)
	return nil
}

func deleteTopic(ctx context.Context, cmd *cli.Command, app *internal.ClientApp) error {
	args, err := requireArgs(cmd, "topic-id")
	if err != nil {
		return err
	}
	n := app.State.ProblemCount(args[0])
	if err := app.State.DeleteTopic(ctx, args[0]); err != nil {
		return err
	}
	fmt.Printf("deleted topic %s and %d problem(s)\n", args[0], n)
	return nil
}

func problemFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{Name: "title"},
		&cli.StringFlag{Name: "difficulty", Usage: "Easy, Medium or Hard"},
		&cli.StringFlag{Name: "solution"},
		&cli.StringFlag{Name: "notes"},
		&cli.StringFlag{Name: "tags", Usage: "comma-separated"},
		&cli.StringFlag{Name: "leetcode", Usage: "LeetCode URL"},
		&cli.StringFlag{Name: "gfg", Usage: "GeeksforGeeks URL"},
		&cli.StringFlag{Name: "time", Usage: "time complexity"},
		&cli.StringFlag{Name: "space", Usage: "space complexity"},
	}
}

func problemsCommand() *cli.Command {
	return &cli.Command{
		Name:   "problems",
		Usage:  "List and manage problems",
		Action: withClient(listProblems),
		Commands: []*cli.Command{
			{
				Name:  "list",
				Usage: "List problems, newest first",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "topic", Usage: "only problems of this topic ID"},
				},
				Action: withClient(listProblems),
			},
			{
				Name:  "add",
				Usage: "Record a problem under a topic",
				Flags: append(problemFlags(),
					&cli.StringFlag{Name: "topic", Required: true, Usage: "topic ID"},
				),
				Action: withClient(addProblem),
			},
			{
				Name:      "show",
				Usage:     "Show every field of a problem",
				ArgsUsage: "<problem-id>",
				Action:    withClient(showProblem),
			},
			{
				Name:      "edit",
				Usage:     "Update fields of a problem",
				ArgsUsage: "<problem-id>",
				Flags:     problemFlags(),
				Action:    withClient(editProblem),
			},
			{
				Name:      "delete",
				Usage:     "Delete a problem",
				ArgsUsage: "<problem-id>",
				Action:    withClient(deleteProblem),
			},
		},
	}
}

func listProblems(_ context.Context, cmd *cli.Command, app *internal.ClientApp) error {
	problems := app.State.Problems()
	if topicID := cmd.String("topic"); topicID != "" {
		problems = app.State.ProblemsByTopic(topicID)
	}
	return renderProblems(os.Stdout, app.State.Topics(), problems)
}

func addProblem(ctx context.Context, cmd *cli.Command, app *internal.ClientApp) error {
	form := forms.ProblemForm{
		TopicID:          cmd.String("topic"),
		Title:            cmd.String("title"),
		Difficulty:       cmd.String("difficulty"),
		LeetcodeURL:      cmd.String("leetcode"),
		GeeksforgeeksURL: cmd.String("gfg"),
		Solution:         cmd.String("solution"),
		Notes:            cmd.String("notes"),
		Tags:             cmd.String("tags"),
		TimeComplexity:   cmd.String("time"),
		SpaceComplexity:  cmd.String("space"),
	}
	if err := form.Validate(); err != nil {
		return err
	}
	if _, ok := app.State.Topic(form.TopicID); !ok {
		return fmt.Errorf("topic %s not found", form.TopicID)
	}
	p, err := app.State.AddProblem(ctx, form.Problem())
	if err != nil {
		return err
	}
	fmt.Printf("created problem %s (%s)\n", p.Title, p.ID)
	return nil
}

func showProblem(_ context.Context, cmd *cli.Command, app *internal.ClientApp) error {
	args, err := requireArgs(cmd, "problem-id")
	if err != nil {
		return err
	}
	app.State.SelectProblem(args[0])
	p, ok := app.State.SelectedProblem()
	if !ok {
		return fmt.Errorf("problem %s not found", args[0])
	}
	return renderProblem(os.Stdout, p)
}

func editProblem(ctx context.Context, cmd *cli.Command, app *internal.ClientApp) error {
	args, err := requireArgs(cmd, "problem-id")
	if err != nil {
		return err
	}
	edit := forms.ProblemEdit{
		Title:            optional(cmd, "title"),
		Difficulty:       optional(cmd, "difficulty"),
		LeetcodeURL:      optional(cmd, "leetcode"),
		GeeksforgeeksURL: optional(cmd, "gfg"),
		Solution:         optional(cmd, "solution"),
		Notes:            optional(cmd, "notes"),
		Tags:             optional(cmd, "tags"),
		TimeComplexity:   optional(cmd, "time"),
		SpaceComplexity:  optional(cmd, "space"),
	}
	patch, err := edit.Patch()
	if err != nil {
		return err
	}
	p, ok, err := app.State.UpdateProblem(ctx, args[0], patch)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("problem %s not found", args[0])
	}
	fmt.Printf("updated problem %s (%s)\n", p.Title, p.ID)
	return nil
}

func deleteProblem(ctx context.Context, cmd *cli.Command, app *internal.ClientApp) error {
	args, err := requireArgs(cmd, "problem-id")
	if err != nil {
		return err
	}
	if err := app.State.DeleteProblem(ctx, args[0]); err != nil {
		return err
	}
	fmt.Printf("deleted problem %s\n", args[0])
	return nil
}

func notesCommand() *cli.Command {
	return &cli.Command{
		Name:      "notes",
		Usage:     "Show and edit the note of a topic",
		ArgsUsage: "<topic-id>",
		Action:    withClient(showNote),
		Commands: []*cli.Command{
			{
				Name:      "show",
				Usage:     "Print the blocks of a note",
				ArgsUsage: "<topic-id>",
				Action:    withClient(showNote),
			},
			{
				Name:      "add-text",
				Usage:     "Append a text block",
				ArgsUsage: "<topic-id> <text>",
				Action: withClient(editNote("topic-id", "text", func(_ context.Context, ed *notes.Editor, args []string) error {
					ed.AppendText(args[1])
					return nil
				})),
			},
			{
				Name:      "add-image",
				Usage:     "Append one image block per file, embedded inline",
				ArgsUsage: "<topic-id> <file>...",
				Action: withClient(editNote("topic-id", "file", func(ctx context.Context, ed *notes.Editor, args []string) error {
					files := make([]notes.ImageFile, 0, len(args)-1)
					for _, path := range args[1:] {
						files = append(files, notes.ImageFile{
							Name: filepath.Base(path),
							Open: func() (io.ReadCloser, error) { return os.Open(path) },
						})
					}
					return ed.AppendImages(ctx, files)
				})),
			},
			{
				Name:      "set-text",
				Usage:     "Replace the content of a text block",
				ArgsUsage: "<topic-id> <block-id> <text>",
				Action: withClient(editNote("topic-id", "block-id", func(_ context.Context, ed *notes.Editor, args []string) error {
					if len(args) < 3 {
						return errors.New("usage: set-text <topic-id> <block-id> <text>")
					}
					if !ed.UpdateText(args[1], args[2]) {
						return fmt.Errorf("no text block %s", args[1])
					}
					return nil
				})),
			},
			{
				Name:      "remove",
				Usage:     "Remove a block",
				ArgsUsage: "<topic-id> <block-id>",
				Action: withClient(editNote("topic-id", "block-id", func(_ context.Context, ed *notes.Editor, args []string) error {
					if !ed.Remove(args[1]) {
						return fmt.Errorf("no block %s", args[1])
					}
					return nil
				})),
			},
		},
	}
}

func showNote(ctx context.Context, cmd *cli.Command, app *internal.ClientApp) error {
	args, err := requireArgs(cmd, "topic-id")
	if err != nil {
		return err
	}
	ed := notes.NewEditor(app.State, args[0])
	if err := ed.Load(ctx); err != nil {
		return err
	}
	if t, ok := app.State.Topic(args[0]); ok {
		fmt.Printf("%s\n\n", t.Name)
	}
	return renderBlocks(os.Stdout, ed.Blocks())
}

// editNote loads the note named by the first argument, applies fn and saves
// the result when fn changed anything.
func editNote(first, second string, fn func(ctx context.Context, ed *notes.Editor, args []string) error) clientAction {
	return func(ctx context.Context, cmd *cli.Command, app *internal.ClientApp) error {
		if _, err := requireArgs(cmd, first, second); err != nil {
			return err
		}
		args := cmd.Args().Slice()
		ed := notes.NewEditor(app.State, args[0])
		if err := ed.Load(ctx); err != nil {
			return err
		}
		if err := fn(ctx, ed, args); err != nil {
			return err
		}
		if !ed.Dirty() {
			return nil
		}
		if err := ed.Save(ctx); err != nil {
			return err
		}
		return renderBlocks(os.Stdout, ed.Blocks())
	}
}

func searchCommand() *cli.Command {
	return &cli.Command{
		Name:      "search",
		Usage:     "Search topic names and descriptions, problem titles, solutions, notes and tags",
		ArgsUsage: "<query>",
		Action: withClient(func(_ context.Context, cmd *cli.Command, app *internal.ClientApp) error {
			app.State.SetSearchQuery(strings.Join(cmd.Args().Slice(), " "))
			if err := renderTopics(os.Stdout, app.State, app.State.FilteredTopics()); err != nil {
				return err
			}
			fmt.Println()
			return renderProblems(os.Stdout, app.State.Topics(), app.State.FilteredProblems())
		}),
	}
}

func uploadCommand() *cli.Command {
	return &cli.Command{
		Name:      "upload",
		Usage:     "Upload an image to the server and print its URL",
		ArgsUsage: "<file>",
		Action: withClient(func(ctx context.Context, cmd *cli.Command, app *internal.ClientApp) error {
			args, err := requireArgs(cmd, "file")
			if err != nil {
				return err
			}
			f, err := os.Open(args[0])
			if err != nil {
				return err
			}
			defer f.Close()
			url, err := app.Client.UploadImage(ctx, filepath.Base(args[0]), f)
			if err != nil {
				return fmt.Errorf("upload: %w", err)
			}
			fmt.Println(url)
			return nil
		}),
	}
}

func healthCommand() *cli.Command {
	return &cli.Command{
		Name:  "health",
		Usage: "Check that the backend is reachable",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			app, err := internal.OpenClient(cfg, os.Stderr)
			if err != nil {
				return err
			}
			h, err := app.Client.Health(ctx)
			if err != nil {
				fmt.Printf("%s unreachable: %v\n", app.Client.BaseURL(), err)
				return nil
			}
			fmt.Printf("%s %s: %s\n", app.Client.BaseURL(), h.Status, h.Message)
			return nil
		},
	}
}

func watchCommand() *cli.Command {
	return &cli.Command{
		Name:  "watch",
		Usage: "Show topics and re-render whenever the local cache changes",
		Action: withClient(func(ctx context.Context, _ *cli.Command, app *internal.ClientApp) error {
			ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			render := func() {
				fmt.Printf("\n[%s]\n", time.Now().Format(time.TimeOnly))
				if err := renderTopics(os.Stdout, app.State, app.State.Topics()); err != nil {
					app.Logger.Error("render failed", slog.String("error", err.Error()))
				}
			}
			render()
			defer app.State.Subscribe(func(state.Snapshot) { render() })()

			return app.Cache.Watch(ctx, app.Logger, func(kind localcache.ChangeKind, key string) {
				app.Logger.Debug("cache changed", slog.String("kind", string(kind)), slog.String("key", key))
				app.State.Adopt(app.Storage.LocalTopics(), app.Storage.LocalProblems())
			})
		}),
	}
}

func resetCommand() *cli.Command {
	return &cli.Command{
		Name:  "reset",
		Usage: "Drop the local cache and reload from the server or the bundled defaults",
		Action: withClient(func(ctx context.Context, _ *cli.Command, app *internal.ClientApp) error {
			if err := app.State.Reset(ctx); err != nil {
				return err
			}
			return renderTopics(os.Stdout, app.State, app.State.Topics())
		}),
	}
}
