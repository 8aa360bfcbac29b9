// Package match ranks known field names against a requested one.
//
// Names are compared by key: their words lower-cased and concatenated, so that
// "first_name" and "FirstName" are equal. A stem additionally drops trailing
// qualifiers such as "ID". Scores are Levenshtein similarities of keys and
// stems. The mapper and the mapping file loader use Suggest to attach "did you
// mean" hints to errors about unknown names.
package match
