package cmd

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"

	"github.com/hanweng/lingtutor/internal/lesson"
)

var lessonUser string

var lessonCmd = &cobra.Command{
	Use:   "lesson",
	Short: "Run an interactive correction lesson in the terminal",
	Long: `Walks through a full lesson: describe your situation and what you want
to say, confirm or clarify the tutor's understanding, then receive the
corrected Mandarin with alternatives and rate the result.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		d, err := buildDeps()
		if err != nil {
			return err
		}
		defer d.database.Close()

		sess := d.sessions.Start(lessonUser)
		return runLesson(cmd.Context(), sess)
	},
}

func runLesson(ctx context.Context, sess *lesson.Session) error {
	situation, statedIntent, err := promptSituation()
	if err != nil {
		return err
	}

	fmt.Println("\nThinking...")
	view, err := sess.SubmitSituation(ctx, situation, statedIntent)
	if err != nil {
		return err
	}

	// Clarification loop: show the understanding until the learner
	// confirms it.
	for view.State == lesson.StateClarify {
		fmt.Printf("\n%s\n\n", view.Record.InterpretedIntent)

		choice := promptui.Select{
			Label: "Did I get that right?",
			Items: []string{
				"Yes, that's what I mean",
				"Not quite, let me clarify",
				"Reinterpret from my original input",
				"Start over",
			},
		}
		idx, _, err := choice.Run()
		if err != nil {
			return err
		}

		switch idx {
		case 0:
			fmt.Println("\nGenerating corrections...")
			view, err = sess.ConfirmIntent(ctx)
		case 1:
			clarifyPrompt := promptui.Prompt{
				Label: "What do you actually mean",
				Validate: func(s string) error {
					if strings.TrimSpace(s) == "" {
						return fmt.Errorf("clarification cannot be empty")
					}
					return nil
				},
			}
			var clarification string
			clarification, err = clarifyPrompt.Run()
			if err != nil {
				return err
			}
			fmt.Println("\nThinking...")
			view, err = sess.SubmitClarification(ctx, clarification)
		case 2:
			fmt.Println("\nReinterpreting...")
			view, err = sess.RegenerateFromInput(ctx)
		case 3:
			if _, err := sess.Reset(); err != nil {
				return err
			}
			return runLesson(ctx, sess)
		}
		if err != nil {
			// Backend hiccups leave the lesson intact; let the learner
			// pick again.
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
	}

	printCorrections(view.Record)

	return promptRating(ctx, sess)
}

func promptSituation() (situation, statedIntent string, err error) {
	required := func(s string) error {
		if strings.TrimSpace(s) == "" {
			return fmt.Errorf("this field is required")
		}
		return nil
	}

	situationPrompt := promptui.Prompt{
		Label:    "Describe your situation (e.g. \"ordering at a restaurant\")",
		Validate: required,
	}
	situation, err = situationPrompt.Run()
	if err != nil {
		return "", "", err
	}

	intentPrompt := promptui.Prompt{
		Label:    "What do you want to say",
		Validate: required,
	}
	statedIntent, err = intentPrompt.Run()
	if err != nil {
		return "", "", err
	}

	return situation, statedIntent, nil
}

func printCorrections(rec lesson.Record) {
	fmt.Printf("\nCorrected:\n  %s\n", rec.Corrected)
	if rec.CorrectedNotes != "" {
		fmt.Printf("  %s\n", rec.CorrectedNotes)
	}
	if rec.Alternative1 != "" {
		fmt.Printf("\nAlternative 1:\n  %s\n", rec.Alternative1)
		if rec.Alternative1Notes != "" {
			fmt.Printf("  %s\n", rec.Alternative1Notes)
		}
	}
	if rec.Alternative2 != "" {
		fmt.Printf("\nAlternative 2:\n  %s\n", rec.Alternative2)
		if rec.Alternative2Notes != "" {
			fmt.Printf("  %s\n", rec.Alternative2Notes)
		}
	}
	fmt.Println()
}

func promptRating(ctx context.Context, sess *lesson.Session) error {
	choice := promptui.Select{
		Label: "What now?",
		Items: []string{"Rate and save this lesson", "Go back to the confirmation step", "Discard and quit"},
	}
	idx, _, err := choice.Run()
	if err != nil {
		return err
	}

	switch idx {
	case 1:
		if _, err := sess.ReturnToClarification(); err != nil {
			return err
		}
		// Re-enter the clarification loop with the same inputs.
		view := sess.View()
		for view.State == lesson.StateClarify {
			fmt.Printf("\n%s\n", view.Record.InterpretedIntent)
			view, err = sess.ConfirmIntent(ctx)
			if err != nil {
				return err
			}
		}
		printCorrections(view.Record)
		return promptRating(ctx, sess)
	case 2:
		return nil
	}

	ratingPrompt := promptui.Prompt{
		Label: "Rate this lesson (1-5)",
		Validate: func(s string) error {
			n, err := strconv.Atoi(s)
			if err != nil || n < 1 || n > 5 {
				return fmt.Errorf("enter a number from 1 to 5")
			}
			return nil
		},
	}
	ratingStr, err := ratingPrompt.Run()
	if err != nil {
		return err
	}
	rating, _ := strconv.Atoi(ratingStr)

	view, err := sess.SubmitRating(ctx, rating)
	if err != nil {
		return err
	}

	fmt.Printf("Lesson saved (%s). 加油!\n", view.LessonID)
	return nil
}

func init() {
	lessonCmd.Flags().StringVar(&lessonUser, "user", "anonymous", "learner identifier")
	rootCmd.AddCommand(lessonCmd)
}
