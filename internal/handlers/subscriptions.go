package handlers

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
)

type subscriptionResponse struct {
	CRN     int    `json:"crn"`
	Course  string `json:"course"`
	Section string `json:"section"`
	Message string `json:"message"`
}

func (h *Handlers) PostSubscription(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Bad request", http.StatusBadRequest)
		return
	}

	crn, err := strconv.Atoi(r.FormValue("crn"))
	if err != nil {
		http.Error(w, "Invalid CRN", http.StatusBadRequest)
		return
	}

	ref, err := h.watcher.Register(r.Context(), crn, r.FormValue("email"))
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, subscriptionResponse{
		CRN:     crn,
		Course:  ref.CourseTitle,
		Section: ref.Sec,
		Message: fmt.Sprintf("Subscribed to %s section %s", ref.CourseTitle, ref.Sec),
	})
}

// DeleteSubscription removes the email from one section when a CRN is given
// in the path or as a crn parameter, otherwise from every section.
func (h *Handlers) DeleteSubscription(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Bad request", http.StatusBadRequest)
		return
	}

	raw, ok := mux.Vars(r)["crn"]
	if !ok {
		raw = r.FormValue("crn")
	}

	var crn *int
	if raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			http.Error(w, "Invalid CRN", http.StatusBadRequest)
			return
		}
		crn = &n
	}

	affected, err := h.watcher.Purge(r.Context(), r.FormValue("email"), crn)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]int64{"affected": affected})
}
