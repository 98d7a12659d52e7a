package main

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/starford/dsaflash/internal/icons"
	"github.com/starford/dsaflash/internal/models"
	"github.com/starford/dsaflash/internal/notes"
)

// problemCounter is the part of the state container topic listings need.
type problemCounter interface {
	ProblemCount(topicID string) int
	DifficultyBreakdown(topicID string) models.DifficultyCount
}

func newTable(w io.Writer) *tabwriter.Writer {
	return tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
}

func renderTopics(w io.Writer, counts problemCounter, topics []models.Topic) error {
	if len(topics) == 0 {
		_, err := fmt.Fprintln(w, "no topics")
		return err
	}
	tw := newTable(w)
	fmt.Fprintln(tw, "\tID\tNAME\tCATEGORY\tPROBLEMS\tE/M/H")
	for _, t := range topics {
		d := counts.DifficultyBreakdown(t.ID)
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%d\t%d/%d/%d\n",
			icons.Resolve(t.Icon).Symbol, t.ID, t.Name, t.Category,
			counts.ProblemCount(t.ID), d.Easy, d.Medium, d.Hard)
	}
	return tw.Flush()
}

func renderProblems(w io.Writer, topics []models.Topic, problems []models.Problem) error {
	if len(problems) == 0 {
		_, err := fmt.Fprintln(w, "no problems")
		return err
	}
	names := make(map[string]string, len(topics))
	for _, t := range topics {
		names[t.ID] = t.Name
	}
	tw := newTable(w)
	fmt.Fprintln(tw, "ID\tTITLE\tDIFFICULTY\tTOPIC\tTAGS\tCREATED")
	for _, p := range problems {
		topic := names[p.TopicID]
		if topic == "" {
			topic = p.TopicID
		}
		created := ""
		if !p.CreatedAt.IsZero() {
			created = p.CreatedAt.Format("2006-01-02")
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n",
			p.ID, p.Title, p.Difficulty, topic, strings.Join(p.Tags, ", "), created)
	}
	return tw.Flush()
}

func renderProblem(w io.Writer, p models.Problem) error {
	tw := newTable(w)
	row := func(label, value string) {
		if value != "" {
			fmt.Fprintf(tw, "%s:\t%s\n", label, value)
		}
	}
	row("Title", p.Title)
	row("Difficulty", string(p.Difficulty))
	row("Topic", p.TopicID)
	row("Tags", strings.Join(p.Tags, ", "))
	row("Time", p.TimeComplexity)
	row("Space", p.SpaceComplexity)
	row("LeetCode", p.LeetcodeURL)
	row("GeeksforGeeks", p.GeeksforgeeksURL)
	if err := tw.Flush(); err != nil {
		return err
	}
	fmt.Fprintf(w, "\n%s\n", p.Solution)
	if p.Notes != "" {
		fmt.Fprintf(w, "\nNotes:\n%s\n", p.Notes)
	}
	return nil
}

// renderBlocks prints one row per block. Images are summarised instead of
// dumping their data URL.
func renderBlocks(w io.Writer, blocks []notes.Block) error {
	tw := newTable(w)
	fmt.Fprintln(tw, "#\tID\tTYPE\tCONTENT")
	for i, b := range blocks {
		content := b.Content
		if b.Type == notes.TypeImage {
			mime, data, err := notes.ParseDataURL(b.Content)
			if err != nil {
				content = "image"
			} else {
				content = fmt.Sprintf("%s, %d bytes", mime, len(data))
			}
		} else if first, _, cut := strings.Cut(content, "\n"); cut {
			content = first + " ..."
		}
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\n", i+1, b.ID, b.Type, content)
	}
	return tw.Flush()
}
