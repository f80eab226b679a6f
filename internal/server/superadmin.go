package server

import (
	"net/http"

	"vitalflow/pkg/types"
)

// handleAdminBloodBanks lists banks in any status; an empty status filter
// returns all of them.
func (s *Service) handleAdminBloodBanks(w http.ResponseWriter, r *http.Request) {
	var filter types.BloodBankFilter
	if err := decoder.Decode(&filter, r.URL.Query()); err != nil {
		s.fail(w, r, statusError(http.StatusBadRequest, "invalid query parameters"))
		return
	}
	if filter.Status != "" && !filter.Status.Valid() {
		s.fail(w, r, fieldErrors{"status": "Select a valid status."})
		return
	}

	banks, err := s.BloodBanks.BloodBanks(r.Context(), filter)
	if err != nil {
		s.fail(w, r, err)
		return
	}

	s.respond(w, http.StatusOK, banks, "Blood banks fetched successfully")
}

func (s *Service) handleChangeBloodBankStatus(w http.ResponseWriter, r *http.Request) {
	change, err := decodeStatusChange(r)
	if err != nil {
		s.fail(w, r, err)
		return
	}

	if err := s.BloodBanks.UpdateStatus(r.Context(), change.ID, change.Status); err != nil {
		s.fail(w, r, err)
		return
	}

	s.logger.WithField("blood_bank_id", change.ID).WithField("status", change.Status).Info("blood bank status changed")

	s.respond(w, http.StatusOK, nil, "Blood bank status changed successfully")
}
