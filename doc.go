/*
Package sitenav is the navigation resolution engine of a documentation site.

It turns a declarative, possibly infinite and possibly asynchronous description of a
site's page tree into a live, path-addressable structure, kept in sync with the address
bar (a BrowserClient) and with a tree-view state (the explorer).

# Concept

A navigation is a tree of domain.Node values. Each node declares how its children are
obtained: a static mapping, a synchronous or asynchronous function, or a reactive stream
of providers. Function providers are catch-all: they are asked for the children of any
node below them, which makes infinite trees (API docs, file systems) cheap to describe.

The Router resolves navigation requests against this tree and publishes a Target for each
of them: Resolved, Pending while a provider is still computing, or NotFound. Only the
latest request may publish: a slow resolution never overwrites a newer one.

# Key Features

  - Four provider kinds, with memoized results and one computation per node.
  - Latest-request-wins navigation with Pending / Resolved / NotFound targets.
  - Browser history sync (push on navigation, back/forward events), redirects and link aliases.
  - Explorer state: selection, expansion of ancestors, prev/next siblings.
  - Scoped reactive subscriptions, released when no displayed page depends on them.

# Usage

	package main

	import (
		"context"
		"fmt"
		"log"

		"github.com/aretw0/sitenav"
		"github.com/aretw0/sitenav/pkg/domain"
	)

	func main() {
		nav := &domain.Node{Name: "Home", Routes: domain.Static(
			domain.Route{Segment: "/intro", Node: &domain.Node{Name: "Introduction"}},
		)}

		router, err := sitenav.New(nav)
		if err != nil {
			log.Fatal(err)
		}
		defer router.Close()

		target, err := router.Navigate(context.Background(), "/intro")
		if err != nil {
			log.Fatal(err)
		}
		fmt.Println(target.Kind, target.Node.Name) // Resolved Introduction
	}

For hosting a navigation over HTTP, see the pkg/adapters/http package and the sitenav CLI.
*/
package sitenav
