/*
Package ports defines the driven ports (interfaces) of the sitenav router.

These interfaces decouple the navigation logic from the host environment, allowing
the router to work with a real browser, a remote page over a websocket, or an
in-memory fake, and to persist history in various storage backends.

# Key Interfaces

  - BrowserClient: The address bar (current URL, history pushes, back/forward events).
  - Scroller: Scrolls the rendered page to a section.
  - HistoryStore: Persists a browser history per session.
  - NavigationSource: Loads a navigation definition (e.g., from a file or a Loam directory).
*/
package ports
