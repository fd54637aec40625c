// Package models defines the domain types for the blog.
package models

import "time"

// Post is one published piece of content. Route is its identity.
type Post struct {
	Route       string       `json:"route"`
	Slug        string       `json:"slug,omitempty"`
	Title       string       `json:"title"`
	Description string       `json:"description,omitempty"`
	Excerpt     string       `json:"excerpt"`
	Date        time.Time    `json:"date"`
	DisplayDate string       `json:"display_date"`
	Image       *Image       `json:"image,omitempty"`
	Attribution *Attribution `json:"attribution,omitempty"`
	Body        string       `json:"-"`
	SourcePath  string       `json:"source_path"`
	Checksum    string       `json:"checksum"`
}

// Image is an opaque cover image reference. Source is relative to the
// content root; URL is where the site builder publishes it.
type Image struct {
	Source string `json:"source"`
	URL    string `json:"url,omitempty"`
}

// Attribution credits the author of a cover image.
type Attribution struct {
	Name string `json:"name"`
	Link string `json:"link,omitempty"`
}

// DisplayDateLayout is the layout used to pre-format publication dates.
const DisplayDateLayout = "Jan 02, 2006"
