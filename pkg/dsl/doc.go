/*
Package dsl builds question graphs in Go instead of YAML.

Nodes keep the order in which they are first added, so the resulting
definitions match what an equivalent configuration file would produce.

Example usage:

	b := dsl.New()

	b.Add("welcome").
		Text("Do you like Go?").
		Answer("Yes", "editor").
		Answer("No", "end")

	b.Add("editor").
		Text("Favourite editor?").
		After("welcome").
		Answer("vim", "end").
		Answer("emacs", "end")

	bot, err := onboard.New(b.Definitions())
*/
package dsl
