package server

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gainhour/gainhour/internal/models"
	"github.com/gainhour/gainhour/internal/tracker"
)

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.engine.Status())
}

func (s *Server) handleVersion(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"version": s.version})
}

func (s *Server) handleSessionStart(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name        string `json:"name"`
		Kind        string `json:"kind"`
		Description string `json:"description"`
	}
	if err := readJSON(r, &req); err != nil || req.Name == "" {
		writeError(w, http.StatusBadRequest, errors.New("name is required"))
		return
	}

	act, err := s.engine.StartManual(req.Name, models.ActivityKind(req.Kind), req.Description)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, act)
}

func (s *Server) handleSessionStop(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name string `json:"name"`
	}
	if err := readJSON(r, &req); err != nil || req.Name == "" {
		writeError(w, http.StatusBadRequest, errors.New("name is required"))
		return
	}

	act, err := s.findActivity(req.Name)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	if act == nil {
		writeError(w, http.StatusNotFound, fmt.Errorf("unknown activity %q", req.Name))
		return
	}

	if err := s.engine.StopManual(act.ID); err != nil {
		if errors.Is(err, tracker.ErrNoManualSession) {
			writeError(w, http.StatusConflict, err)
			return
		}
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"stopped": act.Name})
}

func (s *Server) handleSessionDescription(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name        string `json:"name"`
		Description string `json:"description"`
	}
	if err := readJSON(r, &req); err != nil || req.Name == "" {
		writeError(w, http.StatusBadRequest, errors.New("name is required"))
		return
	}

	act, err := s.findActivity(req.Name)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	if act == nil {
		writeError(w, http.StatusNotFound, fmt.Errorf("unknown activity %q", req.Name))
		return
	}

	if err := s.engine.UpdateManualDescription(act.ID, req.Description); err != nil {
		if errors.Is(err, tracker.ErrNoManualSession) {
			writeError(w, http.StatusConflict, err)
			return
		}
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"updated": act.Name})
}

func (s *Server) handleActivities(w http.ResponseWriter, r *http.Request) {
	acts, err := s.store.Activities()
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, acts)
}

func (s *Server) handleVisibility(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ActivityID int64 `json:"activity_id"`
		Visible    bool  `json:"visible"`
	}
	if err := readJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if err := s.store.UpdateVisibility(req.ActivityID, req.Visible); err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"visible": req.Visible})
}

// handleIcon copies a user-chosen image into the icon cache and points the
// activity at it.
func (s *Server) handleIcon(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ActivityID int64  `json:"activity_id"`
		SourcePath string `json:"source_path"`
	}
	if err := readJSON(r, &req); err != nil || req.SourcePath == "" {
		writeError(w, http.StatusBadRequest, errors.New("source_path is required"))
		return
	}

	act, err := s.store.Activity(req.ActivityID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	if act == nil {
		writeError(w, http.StatusNotFound, fmt.Errorf("activity %d not found", req.ActivityID))
		return
	}

	cached, err := s.icons.Save(act.Name, req.SourcePath)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	if err := s.store.UpdateIcon(act.ID, cached); err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"icon_path": cached})
}

func (s *Server) handleActivityDelete(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, errors.New("invalid activity id"))
		return
	}

	act, err := s.store.DeleteActivity(id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	if act == nil {
		writeError(w, http.StatusNotFound, fmt.Errorf("activity %d not found", id))
		return
	}
	if act.IconPath.Valid {
		if err := s.icons.Remove(act.IconPath.String); err != nil {
			s.log.Warn().Err(err).Str("path", act.IconPath.String).Msg("icon cleanup failed")
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"deleted": act.Name})
}

func (s *Server) handleStatsSummary(w http.ResponseWriter, r *http.Request) {
	from, fromOK := unixParam(r, "from")
	to, toOK := unixParam(r, "to")

	var (
		totals []*models.ActivityTotal
		err    error
	)
	if fromOK && toOK {
		totals, err = s.store.ActivityTotalsBetween(from, to)
	} else {
		totals, err = s.store.ActivityTotals()
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, totals)
}

func (s *Server) handleStatsToday(w http.ResponseWriter, r *http.Request) {
	totals, err := s.store.TodayTotals()
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, totals)
}

func (s *Server) handleStatsDaily(w http.ResponseWriter, r *http.Request) {
	id, err := activityIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	days, err := s.store.DailyBreakdown(id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, days)
}

func (s *Server) handleStatsDescriptions(w http.ResponseWriter, r *http.Request) {
	id, err := activityIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	entries, err := s.store.DescriptionLogs(id, limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, entries)
}

func (s *Server) handleSettingsGet(w http.ResponseWriter, r *http.Request) {
	settings, err := s.store.Settings()
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, settings)
}

func (s *Server) handleSettingsSet(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Key   string `json:"key"`
		Value string `json:"value"`
	}
	if err := readJSON(r, &req); err != nil || req.Key == "" {
		writeError(w, http.StatusBadRequest, errors.New("key is required"))
		return
	}
	if err := s.store.SetSetting(req.Key, req.Value); err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, models.Setting{Key: req.Key, Value: req.Value})
}

func (s *Server) handleIgnore(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name    string `json:"name"`
		Ignored bool   `json:"ignored"`
	}
	if err := readJSON(r, &req); err != nil || req.Name == "" {
		writeError(w, http.StatusBadRequest, errors.New("name is required"))
		return
	}
	s.engine.SetIgnored(req.Name, req.Ignored)
	writeJSON(w, http.StatusOK, map[string]bool{"ignored": req.Ignored})
}

func (s *Server) handlePin(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ActivityID int64  `json:"activity_id"`
		Name       string `json:"name"`
	}
	if err := readJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	id := req.ActivityID
	if id == 0 && req.Name != "" {
		act, err := s.findActivity(req.Name)
		if err != nil {
			writeError(w, http.StatusInternalServerError, err)
			return
		}
		if act == nil {
			writeError(w, http.StatusNotFound, fmt.Errorf("unknown activity %q", req.Name))
			return
		}
		id = act.ID
	}

	if err := s.engine.Pin(id); err != nil {
		writeError(w, http.StatusNotFound, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int64{"pinned": id})
}

func (s *Server) handleUnpin(w http.ResponseWriter, r *http.Request) {
	s.engine.Unpin()
	writeJSON(w, http.StatusOK, map[string]bool{"pinned": false})
}

func (s *Server) handleReconnect(w http.ResponseWriter, r *http.Request) {
	if err := s.engine.ReconnectPresence(); err != nil {
		writeError(w, http.StatusBadGateway, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"connected": true})
}

func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Confirm bool `json:"confirm"`
	}
	if err := readJSON(r, &req); err != nil || !req.Confirm {
		writeError(w, http.StatusBadRequest, errors.New("confirm must be true"))
		return
	}
	if err := s.store.WipeAll(); err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	s.log.Warn().Msg("all tracking data wiped by user request")
	writeJSON(w, http.StatusOK, map[string]bool{"wiped": true})
}

// findActivity resolves a name against both kinds, manual (irl) first.
func (s *Server) findActivity(name string) (*models.Activity, error) {
	act, err := s.store.ActivityByName(name, models.KindIRL)
	if err != nil || act != nil {
		return act, err
	}
	return s.store.ActivityByName(name, models.KindApp)
}

func activityIDParam(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(r.URL.Query().Get("activity_id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, errors.New("activity_id is required")
	}
	return id, nil
}

func unixParam(r *http.Request, key string) (time.Time, bool) {
	v := r.URL.Query().Get(key)
	if v == "" {
		return time.Time{}, false
	}
	sec, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return time.Time{}, false
	}
	return time.Unix(sec, 0), true
}
