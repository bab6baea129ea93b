package httpapi

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	"github.com/KaramelBytes/scoreloom-cli/internal/analysis"
	"github.com/KaramelBytes/scoreloom-cli/internal/export"
	"github.com/KaramelBytes/scoreloom-cli/internal/record"
	"github.com/KaramelBytes/scoreloom-cli/internal/store"
)

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, map[string]any{"status": "ok", "time": s.now().UTC()})
}

func filterFrom(r *http.Request) (store.Filter, error) {
	q := r.URL.Query()
	f, err := store.NewFilter(q.Get("name"), q.Get("subject"), q.Get("track"))
	if err != nil {
		return store.Filter{}, badRequest(err.Error())
	}
	return f, nil
}

func (s *Server) listRecords(w http.ResponseWriter, r *http.Request) {
	f, err := filterFrom(r)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	recs, err := s.svc.ListRecords(r.Context(), f)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	if recs == nil {
		recs = []record.PerformanceRecord{}
	}
	render.JSON(w, r, map[string]any{"count": len(recs), "records": recs})
}

// fieldsFrom converts a JSON object keyed by column name into manual-entry fields.
func fieldsFrom(body map[string]any) (map[string]string, error) {
	out := make(map[string]string, len(body))
	for k, v := range body {
		switch t := v.(type) {
		case nil:
			out[k] = ""
		case string:
			out[k] = t
		case float64:
			out[k] = record.FormatNumber(t)
		case bool:
			out[k] = strconv.FormatBool(t)
		default:
			return nil, badRequest(fmt.Sprintf("field %q must be a string or number", k))
		}
	}
	return out, nil
}

func (s *Server) addRecord(w http.ResponseWriter, r *http.Request) {
	var body map[string]any
	if err := render.DecodeJSON(http.MaxBytesReader(w, r.Body, 1<<20), &body); err != nil {
		s.fail(w, r, badRequest("invalid JSON body: "+err.Error()))
		return
	}
	fields, err := fieldsFrom(body)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	rec, err := s.svc.AddRecord(r.Context(), fields)
	if err != nil {
		s.metrics.observeInsert(err)
		s.fail(w, r, err)
		return
	}
	render.Status(r, http.StatusCreated)
	render.JSON(w, r, rec)
}

func (s *Server) resetAll(w http.ResponseWriter, r *http.Request) {
	if ok, _ := strconv.ParseBool(r.URL.Query().Get("confirm")); !ok {
		s.fail(w, r, newAPIError(http.StatusBadRequest, "CONFIRMATION_REQUIRED", "pass confirm=true to delete every record", nil))
		return
	}
	if err := s.svc.ResetAll(r.Context()); err != nil {
		s.fail(w, r, err)
		return
	}
	render.JSON(w, r, map[string]any{"status": "reset"})
}

func (s *Server) deleteRecord(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		s.fail(w, r, badRequest("record id must be a positive integer"))
		return
	}
	if err := s.svc.DeleteByID(r.Context(), id); err != nil {
		s.fail(w, r, err)
		return
	}
	render.JSON(w, r, map[string]any{"deleted": 1})
}

func (s *Server) deleteStudent(w http.ResponseWriter, r *http.Request) {
	name := strings.TrimSpace(chi.URLParam(r, "name"))
	if name == "" {
		s.fail(w, r, &record.FieldError{Field: record.ColName})
		return
	}
	n, err := s.svc.DeleteByName(r.Context(), name)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	render.JSON(w, r, map[string]any{"deleted": n})
}

func (s *Server) listStudents(w http.ResponseWriter, r *http.Request) {
	names, err := s.svc.Students(r.Context())
	if err != nil {
		s.fail(w, r, err)
		return
	}
	if names == nil {
		names = []string{}
	}
	render.JSON(w, r, map[string]any{"students": names})
}

// readUpload returns the uploaded bytes and a file name for format detection. Multipart
// requests carry the file in the "file" part; anything else is the raw body, named by
// the filename query parameter.
func (s *Server) readUpload(w http.ResponseWriter, r *http.Request) (string, []byte, error) {
	body := http.MaxBytesReader(w, r.Body, s.maxUpload)
	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		r.Body = body
		if err := r.ParseMultipartForm(s.maxUpload); err != nil {
			return "", nil, badRequest("invalid multipart body: " + err.Error())
		}
		f, hdr, err := r.FormFile("file")
		if err != nil {
			return "", nil, badRequest("multipart body needs a \"file\" part")
		}
		defer f.Close()
		data, err := io.ReadAll(f)
		if err != nil {
			return "", nil, badRequest("read upload: " + err.Error())
		}
		return hdr.Filename, data, nil
	}
	data, err := io.ReadAll(body)
	if err != nil {
		return "", nil, badRequest("read body: " + err.Error())
	}
	name := r.URL.Query().Get("filename")
	if name == "" {
		name = "upload.csv"
	}
	return name, data, nil
}

func (s *Server) importFile(w http.ResponseWriter, r *http.Request) {
	name, data, err := s.readUpload(w, r)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	res, err := s.svc.BulkImport(r.Context(), name, data)
	s.metrics.observeImport(res, err)
	if err != nil {
		apiErr := errorFor(err)
		var de *record.DuplicateError
		if res != nil && errors.As(err, &de) {
			apiErr.Details = map[string]any{
				"position": de.Index + 1, "committed": res.Added, "report": res.Report,
			}
		}
		s.fail(w, r, apiErr)
		return
	}
	render.JSON(w, r, res)
}

func (s *Server) summary(w http.ResponseWriter, r *http.Request) {
	f, err := filterFrom(r)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	by, err := analysis.ParseGroupBy(r.URL.Query().Get("group_by"))
	if err != nil {
		s.fail(w, r, badRequest(err.Error()))
		return
	}
	rep, err := s.svc.Summarize(r.Context(), f, by)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	if strings.EqualFold(r.URL.Query().Get("format"), "markdown") {
		render.PlainText(w, r, rep.Markdown())
		return
	}
	render.JSON(w, r, rep)
}

func (s *Server) insights(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	var track record.Track
	if q := r.URL.Query().Get("track"); q != "" {
		t, ok := record.LookupTrack(q)
		if !ok {
			s.fail(w, r, badRequest(fmt.Sprintf("unknown track %q (use JEE or NEET)", q)))
			return
		}
		track = t
	}
	list, err := s.svc.Insights(r.Context(), name, track)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	if list == nil {
		list = []string{}
	}
	render.JSON(w, r, map[string]any{"student": name, "track": track, "insights": list})
}

func (s *Server) stats(w http.ResponseWriter, r *http.Request) {
	st, err := s.svc.Stats(r.Context())
	if err != nil {
		s.fail(w, r, err)
		return
	}
	render.JSON(w, r, st)
}

func (s *Server) export(w http.ResponseWriter, r *http.Request) {
	format, err := export.ParseFormat(r.URL.Query().Get("format"))
	if err != nil {
		s.fail(w, r, badRequest(err.Error()))
		return
	}
	f, err := filterFrom(r)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	var buf bytes.Buffer
	n, err := s.svc.Export(r.Context(), &buf, f, format)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	w.Header().Set("Content-Type", format.ContentType())
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", export.DefaultFileName(s.now(), format)))
	w.Header().Set("X-Record-Count", strconv.Itoa(n))
	_, _ = w.Write(buf.Bytes())
}
