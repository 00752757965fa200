/*
Package domain contains the core navigation models of the sitenav engine.

It defines the declarative description of a site's page tree and the values the
router publishes while resolving it. This package is kept pure and free of
external dependencies like I/O or persistence, following Hexagonal Architecture
principles.

# Key Entities

  - Node: A page of the navigation definition (name, header, layout, routes).
  - Routes: The children provider of a node (static, sync, async or reactive).
  - ResolvedNode: The memoized result of resolving a path.
  - UrlTarget: A parsed address-bar location (path, section, parameters).
  - Target: The router's published answer for a UrlTarget (Resolved, Pending or NotFound).
*/
package domain
