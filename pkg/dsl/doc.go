/*
Package dsl provides a Go DSL for programmatically declaring sitenav navigations.

Pages are declared by path with a fluent builder instead of nesting domain.Node
literals, which keeps large static trees readable:

	b := dsl.New("Home")
	b.Add("/guide").Name("Guide")
	b.Add("/guide/install").Name("Installation")
	b.Add("/api").Name("API").Async(loadAPIPages)

	source, err := b.Build()
	if err != nil {
		return err
	}
	nav, _ := source.Load(ctx)
	router, err := sitenav.New(nav)
*/
package dsl
