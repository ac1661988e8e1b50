package user

import (
	"encoding/json"
	"errors"
	"io"
	"mime"
	"net/http"
	"strings"

	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

const (
	msgUserAdded     = "User Added"
	msgUserNotFound  = "Can't find user"
	msgSomethingWent = "Something went wrong"
)

var (
	errMissingField = errors.New("username and password are required")
	errTrailingData = errors.New("unexpected data after JSON object")
	errContentType  = errors.New("content type must be application/json")
)

type UserHandler struct {
	db     Database
	logger *zap.Logger
}

func NewUserHandler(db Database, logger *zap.Logger) *UserHandler {
	return &UserHandler{
		db:     db,
		logger: logger,
	}
}

// RegisterRoutes mounts the user routes on r.
func (h *UserHandler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("/user/{user}", h.GetUserHandler).Methods(http.MethodGet)
	r.HandleFunc("/user", h.PutUserHandler).Methods(http.MethodPut)
}

// GetUserHandler answers GET /user/{user} with "<username> <password>".
func (h *UserHandler) GetUserHandler(w http.ResponseWriter, r *http.Request) {
	username := mux.Vars(r)["user"]

	u, err := h.db.GetUserByUsername(r.Context(), username)
	switch {
	case errors.Is(err, ErrNoResultSet):
		writeText(w, msgSomethingWent)
	case err != nil:
		h.logger.Error("Error looking up user", zap.String("username", username), zap.Error(err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
	case u == nil:
		writeText(w, msgUserNotFound)
	default:
		writeText(w, u.Username+" "+u.Password)
	}
}

// PutUserHandler answers PUT /user. Storage failures are reported in the
// body with a 200 status.
func (h *UserHandler) PutUserHandler(w http.ResponseWriter, r *http.Request) {
	u, err := decodeUser(r)
	if err != nil {
		http.Error(w, "Invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}

	if err := h.db.PutUser(r.Context(), u); err != nil {
		h.logger.Error("Error storing user", zap.String("username", u.Username), zap.Error(err))
		writeText(w, msgSomethingWent)
		return
	}
	writeText(w, msgUserAdded)
}

// decodeUser requires a JSON content type and a body holding exactly one
// object with both fields present as strings.
func decodeUser(r *http.Request) (*User, error) {
	if err := checkJSONContentType(r.Header.Get("Content-Type")); err != nil {
		return nil, err
	}

	var req struct {
		Username *string `json:"username"`
		Password *string `json:"password"`
	}
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(&req); err != nil {
		return nil, err
	}
	if err := dec.Decode(&struct{}{}); err != io.EOF {
		return nil, errTrailingData
	}
	if req.Username == nil || req.Password == nil {
		return nil, errMissingField
	}
	return &User{Username: *req.Username, Password: *req.Password}, nil
}

// checkJSONContentType accepts application/json and any +json subtype.
func checkJSONContentType(header string) error {
	if header == "" {
		return errContentType
	}
	mediaType, _, err := mime.ParseMediaType(header)
	if err != nil {
		return errContentType
	}
	if mediaType == "application/json" || (strings.HasPrefix(mediaType, "application/") && strings.HasSuffix(mediaType, "+json")) {
		return nil
	}
	return errContentType
}

func writeText(w http.ResponseWriter, body string) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	io.WriteString(w, body)
}
