package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var cloneDefault bool

var voicesCmd = &cobra.Command{
	Use:   "voices",
	Short: "Voice management commands",
}

var voicesCloneCmd = &cobra.Command{
	Use:   "clone <name> <sample files...>",
	Short: "Clone a voice from recorded samples",
	Long: `Clone a narration voice from recorded audio samples.

The first cloned voice automatically becomes the owner's default.

Examples:
  pagevoice voices clone "Grandpa Joe" sample1.mp3 sample2.mp3
  pagevoice voices clone "Mom" reading.mp3 --default`,
	Args: cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.Close()

		var samples [][]byte
		for _, p := range args[1:] {
			data, err := os.ReadFile(p)
			if err != nil {
				return fmt.Errorf("failed to read voice sample: %w", err)
			}
			samples = append(samples, data)
		}

		v, err := a.orch.CloneVoice(cmd.Context(), a.owner, args[0], samples, cloneDefault)
		if err != nil {
			return err
		}
		return printOutput(v)
	},
}

var voicesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List cloned voices",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.Close()

		voices, err := a.orch.ListVoices(cmd.Context(), a.owner)
		if err != nil {
			return err
		}
		return printOutput(voices)
	},
}

var voicesDefaultCmd = &cobra.Command{
	Use:   "default <voice-id>",
	Short: "Set the default narration voice",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.Close()

		if err := a.orch.SetDefaultVoice(cmd.Context(), a.owner, args[0]); err != nil {
			return err
		}
		fmt.Printf("default voice set to %s\n", args[0])
		return nil
	},
}

var voiceCmd = &cobra.Command{
	Use:   "voice <book-id> <voice-id>",
	Short: "Switch a book's narration voice",
	Long: `Switch which voice narrates a book.

If the book already has a rendering for the target voice, this is an instant
switch. Otherwise the whole book is synthesized with the new voice, and the
listening position carries over so playback resumes at the same spot.

Examples:
  pagevoice voice bk-42 v-123`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.Close()

		b, err := a.orch.ChangeVoice(cmd.Context(), a.owner, args[0], args[1])
		if err != nil {
			return err
		}
		return printOutput(b)
	},
}

func init() {
	voicesCloneCmd.Flags().BoolVar(&cloneDefault, "default", false, "make this the default voice")

	voicesCmd.AddCommand(voicesCloneCmd)
	voicesCmd.AddCommand(voicesListCmd)
	voicesCmd.AddCommand(voicesDefaultCmd)
	rootCmd.AddCommand(voicesCmd)
	rootCmd.AddCommand(voiceCmd)
}
