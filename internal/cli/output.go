package cli

import (
	"fmt"
	"io"
	"strings"

	jsonitor "github.com/json-iterator/go"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"gopkg.in/yaml.v3"
)

var json = jsonitor.ConfigCompatibleWithStandardLibrary

type outputFormat int

const (
	formatText outputFormat = iota
	formatJSON
	formatYAML
)

func printJSON(w io.Writer, data any) error {
	b, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, string(b))
	return err
}

// printYAML prints data with the same field names as its JSON form.
func printYAML(w io.Writer, data any) error {
	b, err := json.Marshal(data)
	if err != nil {
		return err
	}
	var node yaml.Node
	if err := yaml.Unmarshal(b, &node); err != nil {
		return err
	}
	blockStyle(&node)
	out, err := yaml.Marshal(&node)
	if err != nil {
		return err
	}
	_, err = w.Write(out)
	return err
}

// blockStyle drops the flow style a JSON document gets when parsed as YAML.
func blockStyle(n *yaml.Node) {
	n.Style = 0
	for _, c := range n.Content {
		blockStyle(c)
	}
}

func printValue(w io.Writer, format outputFormat, data any, text func(w io.Writer)) error {
	switch format {
	case formatJSON:
		return printJSON(w, data)
	case formatYAML:
		return printYAML(w, data)
	}
	text(w)
	return nil
}

func printList[E any](w io.Writer, format outputFormat, title string, items []E, describe func(E) string) error {
	return printValue(w, format, items, func(w io.Writer) {
		fmt.Fprintf(w, "%s:\n", cases.Title(language.English).String(title))
		if len(items) == 0 {
			fmt.Fprintln(w, "  (none)")
		}
		for _, item := range items {
			fmt.Fprintf(w, "- %s\n", describe(item))
		}
	})
}

func ref(id *int64) string {
	if id == nil {
		return "-"
	}
	return fmt.Sprintf("%d", *id)
}

func joinNames[E any](items []E, name func(E) string) string {
	names := make([]string, 0, len(items))
	for _, item := range items {
		names = append(names, name(item))
	}
	return strings.Join(names, ", ")
}
