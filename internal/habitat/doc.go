// Package habitat implements the habitat-code normalization and validation
// engine: it splits mosaic codes, validates segments against the reference
// vocabulary, salvages nearly-correct codes through an ordered list of
// correction rules, and reassembles canonical mosaic strings.
//
// Pure transformations only: no file formats beyond the reference lists, no
// geometry, no persistence.
package habitat
