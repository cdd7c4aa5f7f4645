// Package chunking proposes teaching units for a seed sentence.
//
// A Chunker walks the words of a target sentence and applies priority-ordered
// rules that keep grammatically inseparable words together: a negation with
// the verb it negates, an auxiliary with its gerund, an article with its
// noun, a clitic pronoun with its verb. Words no rule claims become atomic
// units. The proposed units always tile the seed; their known glosses are
// left for the course author to fill in.
package chunking
