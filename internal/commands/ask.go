package commands

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/mwiater/panchakarma/internal/rag"
	"github.com/mwiater/panchakarma/internal/render"
)

var askOpts struct {
	query   rag.Query
	example bool
	format  string
	output  string
	width   int
}

// askCmd answers one patient case from the command line.
var askCmd = &cobra.Command{
	Use:   "ask [case description]",
	Short: "Recommend a Panchakarma therapy for a patient case",
	Long: `Answer a patient case from the indexed classical sources.

Pass the case either as free text arguments or with the --symptoms,
--age, --gender, --prakriti and --history flags. The index is built
first when it does not exist yet.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		format := strings.ToLower(strings.TrimSpace(askOpts.format))
		switch format {
		case "text", "json", "yaml":
		default:
			return fmt.Errorf("unsupported --format %q (want text, json or yaml)", askOpts.format)
		}

		q := askOpts.query
		if askOpts.example && strings.TrimSpace(q.Symptoms) == "" {
			q.Symptoms = rag.ExampleSymptoms
		}
		freeText := strings.TrimSpace(strings.Join(args, " "))
		if freeText == "" {
			if err := q.Validate(); err != nil {
				return err
			}
		}

		engine, _, err := openEngine(cmd.Context())
		if err != nil {
			return err
		}
		defer engine.Close()

		var answer rag.Answer
		if freeText != "" {
			answer, err = engine.Answer(cmd.Context(), freeText)
		} else {
			answer, err = engine.AnswerQuery(cmd.Context(), q)
		}
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		if askOpts.output != "" {
			file, err := os.Create(askOpts.output)
			if err != nil {
				return fmt.Errorf("create output file: %w", err)
			}
			defer file.Close()
			out = file
		}
		return writeAnswer(out, answer, format, askOpts.width)
	},
}

// writeAnswer encodes answer in the requested format.
func writeAnswer(w io.Writer, answer rag.Answer, format string, width int) error {
	switch format {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		enc.SetEscapeHTML(false)
		return enc.Encode(answer)
	case "yaml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(answer); err != nil {
			return err
		}
		return enc.Close()
	default:
		return render.Write(w, answer, width)
	}
}

func init() {
	flags := askCmd.Flags()
	flags.IntVar(&askOpts.query.Age, "age", 0, "patient age (1-120)")
	flags.StringVar(&askOpts.query.Gender, "gender", "", "patient gender (Male, Female, Other)")
	flags.StringVar(&askOpts.query.Prakriti, "prakriti", "", "constitution (Vata, Pitta, Kapha)")
	flags.StringVar(&askOpts.query.Symptoms, "symptoms", "", "description of symptoms")
	flags.StringVar(&askOpts.query.History, "history", "", "medical history")
	flags.BoolVar(&askOpts.example, "example", false, "use the example case symptoms")
	flags.StringVar(&askOpts.format, "format", "text", "output format: text, json or yaml")
	flags.StringVarP(&askOpts.output, "output", "o", "", "write the answer to this file instead of stdout")
	flags.IntVar(&askOpts.width, "width", 100, "wrap width for text output (0 disables)")
	rootCmd.AddCommand(askCmd)
}
