package mqtt

import "strings"

// Handler is the callback when a message is received.
type Handler func(topic string, payload []byte)

// MatchTopic matches topic with a filter which may contain the wildcards
// "+" (one level) and a trailing "#" (any levels).
func MatchTopic(topic, filter string) bool {
	levels, patterns := strings.Split(topic, "/"), strings.Split(filter, "/")
	for i, pattern := range patterns {
		if pattern == "#" && i+1 == len(patterns) {
			return true
		}
		if i >= len(levels) {
			return false
		}
		if pattern != "+" && pattern != levels[i] {
			return false
		}
	}
	return len(levels) == len(patterns)
}

// IsFilter indicates topic contains wildcards.
func IsFilter(topic string) bool {
	return strings.Contains(topic, "+") || strings.HasSuffix(topic, "#")
}

// Subscription is one handler registered on a topic filter.
type Subscription struct {
	filter  string
	handler Handler
	routes  *routes
}

// Filter returns the subscribed topic filter.
func (s *Subscription) Filter() string {
	return s.filter
}

// routes fans a received message out to the handlers of every matching
// filter. Many handlers may share a filter; the broker only knows the
// filter once.
type routes struct {
	filters map[string][]*Subscription
}

func (r *routes) add(filter string, handler Handler) (sub *Subscription, first bool) {
	if r.filters == nil {
		r.filters = make(map[string][]*Subscription)
	}
	sub = &Subscription{filter: filter, handler: handler, routes: r}
	subs := r.filters[filter]
	r.filters[filter] = append(subs, sub)
	return sub, len(subs) == 0
}

// remove returns true when sub was the last one on its filter.
func (r *routes) remove(sub *Subscription) bool {
	subs := r.filters[sub.filter]
	for i, s := range subs {
		if s == sub {
			subs = append(subs[:i:i], subs[i+1:]...)
			break
		}
	}
	if len(subs) == 0 {
		delete(r.filters, sub.filter)
		return true
	}
	r.filters[sub.filter] = subs
	return false
}

func (r *routes) match(topic string) (handlers []Handler) {
	if subs, ok := r.filters[topic]; ok {
		for _, sub := range subs {
			handlers = append(handlers, sub.handler)
		}
	}
	for filter, subs := range r.filters {
		if filter == topic || !IsFilter(filter) || !MatchTopic(topic, filter) {
			continue
		}
		for _, sub := range subs {
			handlers = append(handlers, sub.handler)
		}
	}
	return
}

func (r *routes) all() []string {
	filters := make([]string, 0, len(r.filters))
	for filter := range r.filters {
		filters = append(filters, filter)
	}
	return filters
}
