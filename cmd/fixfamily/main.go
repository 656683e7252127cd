package main

import (
	"fmt"
	"io"
	"os"

	"github.com/baditaflorin/l"
	font "github.com/bluemountain3d/font-subsetting-and-metrics-tool"
	"github.com/tdewolff/argp"
)

const usage = "Usage: fixfamily <input_font> <output_font> [family_name_override]"

func main() {
	quiet := false
	options := font.Options{}
	var input, output string

	cmd := argp.New("Give all styles of a TTF/OTF/WOFF/WOFF2/EOT/TTC/OTC font a common family name")
	cmd.AddOpt(&quiet, "q", "quiet", "Suppress warnings about skipped name records.")
	cmd.AddOpt(&options.Index, "i", "index", "Index into font collection (used with TTC or OTC).")
	cmd.AddOpt(&options.Type, "t", "type", "Output mimetype, eg. font/woff2. Defaults to the output file extension or the input format.")
	cmd.AddVal(&input, "input", "Input font file.")
	cmd.AddVal(&output, "output", "Output font file.")
	cmd.AddVal(&options.Family, "family", "Family name to use instead of the one derived from the font.")
	cmd.Parse()

	logger, err := l.NewStandardFactory().CreateLogger(l.Config{
		Output:     os.Stderr,
		JsonFormat: false,
		AsyncWrite: false,
		AddSource:  false,
	})
	if err != nil {
		fmt.Println("ERROR:" + err.Error())
		os.Exit(1)
	}

	code := run(os.Stdout, logger, input, output, options, quiet)
	logger.Close()
	os.Exit(code)
}

// run fixes the family names of a single font and reports the outcome on stdout as SUCCESS:<family> or ERROR:<message>. It returns the exit code.
func run(stdout io.Writer, logger l.Logger, input, output string, options font.Options, quiet bool) int {
	if input == "" || output == "" {
		fmt.Fprintln(stdout, usage)
		return 1
	}

	result, err := font.FixFamilyNames(input, output, options)
	if !quiet {
		for _, skipped := range result.Skipped {
			logger.Warn("skipped name record", "input", input, "error", skipped)
		}
	}
	if err != nil {
		fmt.Fprintln(stdout, "ERROR:"+err.Error())
		return 1
	} else if !result.Found && !quiet {
		logger.Info("no family name found, names left unchanged", "input", input)
	}
	fmt.Fprintln(stdout, "SUCCESS:"+result.FamilyName)
	return 0
}
