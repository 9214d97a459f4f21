package test

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"sync"
)

const (
	ApiSecret = "nightscout-secret"
	// SHA-1 of ApiSecret
	ApiSecretHash = "8d4c7b30555edd74296b38081bf814ddf3f32d8c"
)

// NightscoutServer is an in-memory Nightscout REST API supporting the queries issued by the bridge.
type NightscoutServer struct {
	*httptest.Server

	mu         sync.Mutex
	nextId     int
	treatments []map[string]interface{}
	entries    []map[string]interface{}
	profiles   []map[string]interface{}
	requests   []*http.Request
}

func (n *NightscoutServer) AddTreatment(doc map[string]interface{}) string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.add(&n.treatments, doc)
}

func (n *NightscoutServer) AddEntry(doc map[string]interface{}) string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.add(&n.entries, doc)
}

func (n *NightscoutServer) AddProfile(doc map[string]interface{}) string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.add(&n.profiles, doc)
}

func (n *NightscoutServer) Treatments() []map[string]interface{} {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]map[string]interface{}(nil), n.treatments...)
}

func (n *NightscoutServer) Entries() []map[string]interface{} {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]map[string]interface{}(nil), n.entries...)
}

func (n *NightscoutServer) Profiles() []map[string]interface{} {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]map[string]interface{}(nil), n.profiles...)
}

func (n *NightscoutServer) Requests() []*http.Request {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]*http.Request(nil), n.requests...)
}

func (n *NightscoutServer) add(collection *[]map[string]interface{}, doc map[string]interface{}) string {
	n.nextId++
	id := fmt.Sprintf("%024x", n.nextId)
	stored := make(map[string]interface{}, len(doc)+1)
	for k, v := range doc {
		stored[k] = v
	}
	stored["_id"] = id
	*collection = append(*collection, stored)
	return id
}

func ServerStub() *NightscoutServer {
	ns := &NightscoutServer{}
	ns.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ns.mu.Lock()
		defer ns.mu.Unlock()

		ns.requests = append(ns.requests, r.Clone(r.Context()))
		if r.Header.Get("api-secret") != ApiSecretHash {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}

		switch r.URL.Path {
		case "/api/v1/treatments/":
			ns.handleCollection(w, r, &ns.treatments, "created_at")
		case "/api/v1/entries/":
			ns.handleCollection(w, r, &ns.entries, "date")
		case "/api/v1/profile":
			ns.handleProfile(w, r)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	return ns
}

func (n *NightscoutServer) handleCollection(w http.ResponseWriter, r *http.Request, collection *[]map[string]interface{}, dateField string) {
	switch r.Method {
	case http.MethodGet:
		matching := filter(*collection, r.URL.Query())
		sort.SliceStable(matching, func(i, j int) bool {
			return compare(matching[i][dateField], matching[j][dateField]) > 0
		})
		if count, err := strconv.Atoi(r.URL.Query().Get("count")); err == nil && count < len(matching) {
			matching = matching[:count]
		}
		writeJSON(w, matching)
	case http.MethodPost:
		var docs []map[string]interface{}
		if err := json.NewDecoder(r.Body).Decode(&docs); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		created := make([]map[string]interface{}, 0, len(docs))
		for _, doc := range docs {
			n.add(collection, doc)
			created = append(created, (*collection)[len(*collection)-1])
		}
		writeJSON(w, created)
	case http.MethodDelete:
		matching := filter(*collection, r.URL.Query())
		remaining := (*collection)[:0]
		for _, doc := range *collection {
			if !contains(matching, doc) {
				remaining = append(remaining, doc)
			}
		}
		*collection = remaining
		writeJSON(w, map[string]interface{}{"n": len(matching)})
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func (n *NightscoutServer) handleProfile(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		profiles := make([]map[string]interface{}, 0, len(n.profiles))
		for i := len(n.profiles) - 1; i >= 0; i-- {
			profiles = append(profiles, n.profiles[i])
		}
		writeJSON(w, profiles)
	case http.MethodPut:
		var doc map[string]interface{}
		if err := json.NewDecoder(r.Body).Decode(&doc); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		id, _ := doc["_id"].(string)
		for i, p := range n.profiles {
			if p["_id"] == id {
				n.profiles[i] = doc
				writeJSON(w, doc)
				return
			}
		}
		n.add(&n.profiles, doc)
		writeJSON(w, n.profiles[len(n.profiles)-1])
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

// filter applies find[field]=value and find[field][$gte|$lte]=value conditions.
func filter(docs []map[string]interface{}, query url.Values) []map[string]interface{} {
	var matching []map[string]interface{}
	for _, doc := range docs {
		if matches(doc, query) {
			matching = append(matching, doc)
		}
	}
	return matching
}

func matches(doc map[string]interface{}, query url.Values) bool {
	for key, values := range query {
		if !strings.HasPrefix(key, "find[") {
			continue
		}
		parts := strings.Split(strings.TrimSuffix(strings.TrimPrefix(key, "find["), "]"), "][")
		field := parts[0]
		value := values[0]
		actual, ok := doc[field]
		if !ok {
			return false
		}
		if len(parts) == 1 {
			if fmt.Sprint(actual) != value {
				return false
			}
			continue
		}
		c := compare(actual, value)
		switch parts[1] {
		case "$gte":
			if c < 0 {
				return false
			}
		case "$lte":
			if c > 0 {
				return false
			}
		}
	}
	return true
}

// compare orders numbers numerically and everything else as strings.
func compare(a, b interface{}) int {
	af, aok := number(a)
	bf, bok := number(b)
	if aok && bok {
		switch {
		case af < bf:
			return -1
		case af > bf:
			return 1
		}
		return 0
	}
	return strings.Compare(fmt.Sprint(a), fmt.Sprint(b))
}

func number(v interface{}) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case string:
		f, err := strconv.ParseFloat(n, 64)
		return f, err == nil
	}
	return 0, false
}

func contains(docs []map[string]interface{}, doc map[string]interface{}) bool {
	for _, d := range docs {
		if d["_id"] == doc["_id"] {
			return true
		}
	}
	return false
}

func writeJSON(w http.ResponseWriter, body interface{}) {
	data, err := json.Marshal(body)
	if err != nil {
		w.WriteHeader(http.StatusInternalServerError)
		return
	}
	w.Header().Add("content-type", "application/json")
	w.Write(data)
}
