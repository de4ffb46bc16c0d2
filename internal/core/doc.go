// Package core provides the delimited-text record parser.
//
// This package holds all parsing logic independent of any transport layer.
// It can be used by web handlers, CLI tools, or tests without modification.
//
// # Pipeline
//
// A [Parser] pulls one logical line at a time and passes it through:
//
//  1. [LineReader]: splits the stream into logical lines; EOL inside quotes
//     does not end a line
//  2. Classifier: drops blank, comment and "sep=" lines and loads the header
//  3. [Split]: quote-aware tokenizing of a data line
//  4. [Config.CleanFieldValue]: trim, size and quote policies per field
//  5. Binder: converts each value into a [Record], a [*Bag] or a [*Typed]
//
// Nothing is read until [Parser.Next] is called:
//
//	cfg := core.NewConfig()
//	cfg.HasHeader = true
//	cfg.AddField("Id", 1, core.FieldInt)
//	cfg.AddField("Name", 2, core.FieldText)
//
//	p, err := core.NewParser(f, cfg)
//	if err != nil {
//	    return err
//	}
//	for rec, err := range p.All() {
//	    ...
//	}
//
// # Error Handling
//
// Malformed input ([ParseError]) always ends the pass. Binding failures
// ([FieldError]) are first offered to the field's fallback value, then to
// the field's [ErrorMode]; whatever is left is handled by the record-level
// ErrorMode and reported as [RecordError]. [MapError] turns any of them into
// a coded message for display.
//
// # Layouts
//
// Named configurations are registered at init time with [Register] and
// looked up with [Get]. See package layouts for the built-in ones.
package core
