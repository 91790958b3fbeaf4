// Package crawler builds a page graph by depth-first traversal from a seed
// page, asking a PageSource for each page's outbound links. Every link adds a
// deduplicated edge and raises the target's score by one, except self links.
package crawler
