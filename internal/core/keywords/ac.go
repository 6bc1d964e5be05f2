package keywords

import "slices"

// Aho-Corasick over UTF-8 bytes. UTF-8 is self-synchronizing, so a byte
// match of a valid pattern is always a substring match at rune boundaries

type acNode struct {
	next map[byte]int
	fail int
	out  []int // term ids ending here, including via fail links
}

type automaton struct {
	nodes []acNode
	terms int
}

func newAutomaton(terms []string) *automaton {
	a := &automaton{nodes: []acNode{{next: map[byte]int{}}}, terms: len(terms)}
	for id, t := range terms {
		a.add(t, id)
	}
	a.build()
	return a
}

func (a *automaton) add(term string, id int) {
	if term == "" {
		return
	}
	state := 0
	for i := 0; i < len(term); i++ {
		b := term[i]
		nxt, ok := a.nodes[state].next[b]
		if !ok {
			nxt = len(a.nodes)
			a.nodes = append(a.nodes, acNode{next: map[byte]int{}})
			a.nodes[state].next[b] = nxt
		}
		state = nxt
	}
	a.nodes[state].out = append(a.nodes[state].out, id)
}

// build wires fail links breadth first
func (a *automaton) build() {
	q := make([]int, 0, len(a.nodes))
	for _, s := range a.nodes[0].next {
		q = append(q, s)
	}
	for qi := 0; qi < len(q); qi++ {
		r := q[qi]
		for b, s := range a.nodes[r].next {
			q = append(q, s)
			f := a.nodes[r].fail
			for f != 0 {
				if _, ok := a.nodes[f].next[b]; ok {
					break
				}
				f = a.nodes[f].fail
			}
			if nxt, ok := a.nodes[f].next[b]; ok && nxt != s {
				a.nodes[s].fail = nxt
			}
			a.nodes[s].out = append(a.nodes[s].out, a.nodes[a.nodes[s].fail].out...)
		}
	}
}

// present returns the ids of every term occurring in text, ascending
func (a *automaton) present(text string) []int {
	if a.terms == 0 || text == "" {
		return nil
	}
	seen := make([]bool, a.terms)
	var ids []int
	state := 0
	for i := 0; i < len(text); i++ {
		b := text[i]
		for state != 0 {
			if _, ok := a.nodes[state].next[b]; ok {
				break
			}
			state = a.nodes[state].fail
		}
		if nxt, ok := a.nodes[state].next[b]; ok {
			state = nxt
		}
		for _, id := range a.nodes[state].out {
			if !seen[id] {
				seen[id] = true
				ids = append(ids, id)
			}
		}
		if len(ids) == a.terms {
			break
		}
	}
	slices.Sort(ids)
	return ids
}
