package apiserver

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/grantforge/grantforge/pkg/ai"
	"github.com/grantforge/grantforge/pkg/auth"
	"github.com/grantforge/grantforge/pkg/config"
	"github.com/grantforge/grantforge/pkg/model"
	"github.com/grantforge/grantforge/pkg/store/postgres"
)

func newTestServer(t *testing.T) (*Server, *postgres.Store) {
	t.Helper()
	return newTestServerWithReviewer(t, nil)
}

func newTestServerWithReviewer(t *testing.T, reviewer ai.Reviewer) (*Server, *postgres.Store) {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.New())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		t.Fatalf("open test database: %v", err)
	}

	store := postgres.NewStoreWithDB(db)
	if err := store.AutoMigrate(); err != nil {
		t.Fatalf("migrate test database: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	cfg := &config.Config{}
	cfg.Auth.JWTSecret = "test-secret"
	cfg.Auth.TokenTTL = time.Hour
	cfg.Upload.MaxBytes = 1 << 20
	cfg.AI.Model = "gpt-4o-mini"

	return NewServer(store, nil, reviewer, cfg, zap.NewNop()), store
}

func seedUser(t *testing.T, store *postgres.Store, companyID uuid.UUID, email, password string, role model.Role) *model.User {
	t.Helper()

	hash, err := auth.HashPassword(password)
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}
	user := &model.User{
		Email:        email,
		Name:         email,
		PasswordHash: hash,
		Role:         role,
		Approved:     true,
		CompanyID:    &companyID,
	}
	if err := postgres.NewUserRepository(store.DB()).Create(context.Background(), user); err != nil {
		t.Fatalf("seed user: %v", err)
	}
	return user
}

func seedCompany(t *testing.T, store *postgres.Store, name string) *model.Company {
	t.Helper()

	company := &model.Company{Name: name}
	if err := postgres.NewCompanyRepository(store.DB()).Create(context.Background(), company); err != nil {
		t.Fatalf("seed company: %v", err)
	}
	return company
}

func doRequest(t *testing.T, server *Server, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal request body: %v", err)
		}
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	server.Router().ServeHTTP(w, req)
	return w
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder, out interface{}) {
	t.Helper()
	if err := json.Unmarshal(w.Body.Bytes(), out); err != nil {
		t.Fatalf("decode response %q: %v", w.Body.String(), err)
	}
}

func login(t *testing.T, server *Server, email, password string) string {
	t.Helper()

	w := doRequest(t, server, http.MethodPost, "/api/v1/auth/login", "", map[string]string{
		"email":    email,
		"password": password,
	})
	if w.Code != http.StatusOK {
		t.Fatalf("login %s: status %d: %s", email, w.Code, w.Body.String())
	}
	var resp struct {
		Token string `json:"token"`
	}
	decodeBody(t, w, &resp)
	return resp.Token
}

func TestHealthEndpoint(t *testing.T) {
	server, _ := newTestServer(t)

	w := doRequest(t, server, http.MethodGet, "/health", "", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
}

func TestAPIRequiresAuth(t *testing.T) {
	server, _ := newTestServer(t)

	w := doRequest(t, server, http.MethodGet, "/api/v1/projects", "", nil)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without token, got %d", w.Code)
	}

	w = doRequest(t, server, http.MethodGet, "/api/v1/projects", "not-a-token", nil)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 with garbage token, got %d", w.Code)
	}
}

// TestRegistrationApprovalFlow walks the full lifecycle: a fresh registration
// cannot log in until an admin approves it, then creates a project, adds
// questions, submits it, and sees the approver's rejection with comments.
func TestRegistrationApprovalFlow(t *testing.T) {
	server, store := newTestServer(t)

	w := doRequest(t, server, http.MethodPost, "/api/v1/auth/register", "", map[string]string{
		"email":        "writer@sunrise.test",
		"name":         "Grant Writer",
		"password":     "long-enough-password",
		"company_name": "Sunrise Org",
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("register: status %d: %s", w.Code, w.Body.String())
	}
	var registered struct {
		ID        string  `json:"id"`
		Approved  bool    `json:"approved"`
		Role      string  `json:"role"`
		CompanyID *string `json:"company_id"`
	}
	decodeBody(t, w, &registered)
	if registered.Approved || registered.Role != "viewer" {
		t.Fatalf("new registrations must start as unapproved viewers, got %+v", registered)
	}
	if registered.CompanyID == nil {
		t.Fatal("registration with company_name must create a company")
	}
	companyID, err := uuid.Parse(*registered.CompanyID)
	if err != nil {
		t.Fatalf("parse company id: %v", err)
	}

	w = doRequest(t, server, http.MethodPost, "/api/v1/auth/login", "", map[string]string{
		"email":    "writer@sunrise.test",
		"password": "long-enough-password",
	})
	if w.Code != http.StatusForbidden {
		t.Fatalf("unapproved login should be 403, got %d: %s", w.Code, w.Body.String())
	}

	seedUser(t, store, companyID, "admin@sunrise.test", "admin-password-1", model.RoleAdmin)
	approver := seedUser(t, store, companyID, "board@sunrise.test", "board-password-1", model.RoleApprover)

	adminToken := login(t, server, "admin@sunrise.test", "admin-password-1")
	w = doRequest(t, server, http.MethodPost, "/api/v1/admin/users/"+registered.ID+"/approve", adminToken, map[string]string{
		"role": "editor",
	})
	if w.Code != http.StatusOK {
		t.Fatalf("approve user: status %d: %s", w.Code, w.Body.String())
	}

	writerToken := login(t, server, "writer@sunrise.test", "long-enough-password")

	w = doRequest(t, server, http.MethodPost, "/api/v1/projects", writerToken, map[string]interface{}{
		"name":        "River Cleanup",
		"description": "Restore the riverbank",
		"focus_areas": []string{"environment", "community"},
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("create project: status %d: %s", w.Code, w.Body.String())
	}
	var project struct {
		ID     string `json:"id"`
		Status string `json:"status"`
	}
	decodeBody(t, w, &project)
	if project.Status != "draft" {
		t.Fatalf("new projects must start as draft, got %s", project.Status)
	}

	for _, text := range []string{"What is the project timeline?", "Who benefits from the cleanup?"} {
		w = doRequest(t, server, http.MethodPost, "/api/v1/projects/"+project.ID+"/questions", writerToken, map[string]interface{}{
			"text": text,
		})
		if w.Code != http.StatusCreated {
			t.Fatalf("create question: status %d: %s", w.Code, w.Body.String())
		}
	}

	w = doRequest(t, server, http.MethodPost, "/api/v1/projects/"+project.ID+"/approval-requests", writerToken, map[string]string{
		"approver_id": approver.ID.String(),
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("request approval: status %d: %s", w.Code, w.Body.String())
	}
	var request struct {
		ID     string `json:"id"`
		Status string `json:"status"`
	}
	decodeBody(t, w, &request)
	if request.Status != "pending" {
		t.Fatalf("expected pending request, got %s", request.Status)
	}

	w = doRequest(t, server, http.MethodGet, "/api/v1/projects/"+project.ID, writerToken, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("get project: status %d", w.Code)
	}
	var pendingProject struct {
		Status    string `json:"status"`
		Questions []struct {
			Text string `json:"text"`
		} `json:"questions"`
	}
	decodeBody(t, w, &pendingProject)
	if pendingProject.Status != "pending_approval" {
		t.Fatalf("expected pending_approval, got %s", pendingProject.Status)
	}
	if len(pendingProject.Questions) != 2 {
		t.Fatalf("expected 2 questions, got %d", len(pendingProject.Questions))
	}

	approverToken := login(t, server, "board@sunrise.test", "board-password-1")
	w = doRequest(t, server, http.MethodGet, "/api/v1/approvals/pending", approverToken, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("pending approvals: status %d", w.Code)
	}
	var pendingList []struct {
		ID string `json:"id"`
	}
	decodeBody(t, w, &pendingList)
	if len(pendingList) != 1 || pendingList[0].ID != request.ID {
		t.Fatalf("approver should see the request, got %v", pendingList)
	}

	w = doRequest(t, server, http.MethodPost, "/api/v1/approval-requests/"+request.ID+"/respond", approverToken, map[string]interface{}{
		"approve":  false,
		"comments": "needs more detail",
	})
	if w.Code != http.StatusOK {
		t.Fatalf("respond: status %d: %s", w.Code, w.Body.String())
	}

	w = doRequest(t, server, http.MethodGet, "/api/v1/projects/"+project.ID, writerToken, nil)
	decodeBody(t, w, &pendingProject)
	if pendingProject.Status != "rejected" {
		t.Fatalf("expected rejected project after decision, got %s", pendingProject.Status)
	}

	w = doRequest(t, server, http.MethodGet, "/api/v1/projects/"+project.ID+"/approval-requests", writerToken, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("history: status %d", w.Code)
	}
	var history []struct {
		Status   string `json:"status"`
		Comments string `json:"comments"`
	}
	decodeBody(t, w, &history)
	if len(history) != 1 || history[0].Status != "rejected" || history[0].Comments != "needs more detail" {
		t.Fatalf("history should retain the rejection and its comments, got %v", history)
	}
}

func TestViewerCannotCreateProject(t *testing.T) {
	server, store := newTestServer(t)

	company := seedCompany(t, store, "Sunrise Org")
	seedUser(t, store, company.ID, "viewer@sunrise.test", "viewer-password", model.RoleViewer)
	token := login(t, server, "viewer@sunrise.test", "viewer-password")

	w := doRequest(t, server, http.MethodPost, "/api/v1/projects", token, map[string]string{
		"name": "Should Not Exist",
	})
	if w.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for viewer, got %d: %s", w.Code, w.Body.String())
	}

	var count int64
	if err := store.DB().Model(&model.Project{}).Count(&count).Error; err != nil {
		t.Fatalf("count projects: %v", err)
	}
	if count != 0 {
		t.Fatalf("rejected create must not persist a project, found %d", count)
	}
}

func TestProjectsScopedToCompany(t *testing.T) {
	server, store := newTestServer(t)

	sunrise := seedCompany(t, store, "Sunrise Org")
	rival := seedCompany(t, store, "Rival Org")
	seedUser(t, store, sunrise.ID, "editor@sunrise.test", "sunrise-password", model.RoleEditor)
	seedUser(t, store, rival.ID, "editor@rival.test", "rival-password-1", model.RoleEditor)

	sunriseToken := login(t, server, "editor@sunrise.test", "sunrise-password")
	rivalToken := login(t, server, "editor@rival.test", "rival-password-1")

	w := doRequest(t, server, http.MethodPost, "/api/v1/projects", sunriseToken, map[string]string{
		"name": "Private Project",
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("create project: status %d", w.Code)
	}
	var project struct {
		ID string `json:"id"`
	}
	decodeBody(t, w, &project)

	w = doRequest(t, server, http.MethodGet, "/api/v1/projects/"+project.ID, rivalToken, nil)
	if w.Code != http.StatusNotFound {
		t.Fatalf("foreign tenant must get 404, got %d", w.Code)
	}

	w = doRequest(t, server, http.MethodGet, "/api/v1/projects", rivalToken, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("list projects: status %d", w.Code)
	}
	var list struct {
		Projects []json.RawMessage `json:"projects"`
		Total    int64             `json:"total"`
	}
	decodeBody(t, w, &list)
	if list.Total != 0 || len(list.Projects) != 0 {
		t.Fatalf("foreign tenant must see no projects, got total=%d", list.Total)
	}
}

func TestDuplicateApprovalRequestConflict(t *testing.T) {
	server, store := newTestServer(t)

	company := seedCompany(t, store, "Sunrise Org")
	seedUser(t, store, company.ID, "editor@sunrise.test", "sunrise-password", model.RoleEditor)
	approver := seedUser(t, store, company.ID, "board@sunrise.test", "board-password-1", model.RoleApprover)
	token := login(t, server, "editor@sunrise.test", "sunrise-password")

	w := doRequest(t, server, http.MethodPost, "/api/v1/projects", token, map[string]string{"name": "Once Only"})
	var project struct {
		ID string `json:"id"`
	}
	decodeBody(t, w, &project)

	body := map[string]string{"approver_id": approver.ID.String()}
	w = doRequest(t, server, http.MethodPost, "/api/v1/projects/"+project.ID+"/approval-requests", token, body)
	if w.Code != http.StatusCreated {
		t.Fatalf("first request: status %d: %s", w.Code, w.Body.String())
	}
	w = doRequest(t, server, http.MethodPost, "/api/v1/projects/"+project.ID+"/approval-requests", token, body)
	if w.Code != http.StatusConflict {
		t.Fatalf("second request must be 409, got %d: %s", w.Code, w.Body.String())
	}
}

func TestRescindRequiresAdmin(t *testing.T) {
	server, store := newTestServer(t)

	company := seedCompany(t, store, "Sunrise Org")
	seedUser(t, store, company.ID, "editor@sunrise.test", "sunrise-password", model.RoleEditor)
	seedUser(t, store, company.ID, "admin@sunrise.test", "admin-password-1", model.RoleAdmin)
	approver := seedUser(t, store, company.ID, "board@sunrise.test", "board-password-1", model.RoleApprover)

	editorToken := login(t, server, "editor@sunrise.test", "sunrise-password")
	adminToken := login(t, server, "admin@sunrise.test", "admin-password-1")

	w := doRequest(t, server, http.MethodPost, "/api/v1/projects", editorToken, map[string]string{"name": "Withdrawn"})
	var project struct {
		ID string `json:"id"`
	}
	decodeBody(t, w, &project)

	w = doRequest(t, server, http.MethodPost, "/api/v1/projects/"+project.ID+"/approval-requests", editorToken, map[string]string{
		"approver_id": approver.ID.String(),
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("request approval: status %d", w.Code)
	}

	w = doRequest(t, server, http.MethodPost, "/api/v1/projects/"+project.ID+"/approval-rescind", editorToken, nil)
	if w.Code != http.StatusForbidden {
		t.Fatalf("non-admin rescind must be 403, got %d", w.Code)
	}

	w = doRequest(t, server, http.MethodPost, "/api/v1/projects/"+project.ID+"/approval-rescind", adminToken, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("admin rescind: status %d: %s", w.Code, w.Body.String())
	}

	w = doRequest(t, server, http.MethodGet, "/api/v1/projects/"+project.ID, editorToken, nil)
	var reloaded struct {
		Status string `json:"status"`
	}
	decodeBody(t, w, &reloaded)
	if reloaded.Status != "draft" {
		t.Fatalf("rescinded project must return to draft, got %s", reloaded.Status)
	}
}

func TestProjectUpdateRecordsVersions(t *testing.T) {
	server, store := newTestServer(t)

	company := seedCompany(t, store, "Sunrise Org")
	seedUser(t, store, company.ID, "editor@sunrise.test", "sunrise-password", model.RoleEditor)
	token := login(t, server, "editor@sunrise.test", "sunrise-password")

	w := doRequest(t, server, http.MethodPost, "/api/v1/projects", token, map[string]string{"name": "First Draft"})
	var project struct {
		ID string `json:"id"`
	}
	decodeBody(t, w, &project)

	w = doRequest(t, server, http.MethodPut, "/api/v1/projects/"+project.ID, token, map[string]string{"name": "Second Draft"})
	if w.Code != http.StatusOK {
		t.Fatalf("update: status %d: %s", w.Code, w.Body.String())
	}

	w = doRequest(t, server, http.MethodGet, "/api/v1/projects/"+project.ID+"/versions", token, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("versions: status %d", w.Code)
	}
	var versions []struct {
		VersionNumber int    `json:"version_number"`
		Name          string `json:"name"`
	}
	decodeBody(t, w, &versions)
	if len(versions) != 1 || versions[0].VersionNumber != 1 || versions[0].Name != "First Draft" {
		t.Fatalf("expected one snapshot of the pre-update state, got %v", versions)
	}
}

func TestParseTextCreatesQuestions(t *testing.T) {
	server, store := newTestServer(t)

	company := seedCompany(t, store, "Sunrise Org")
	seedUser(t, store, company.ID, "editor@sunrise.test", "sunrise-password", model.RoleEditor)
	token := login(t, server, "editor@sunrise.test", "sunrise-password")

	w := doRequest(t, server, http.MethodPost, "/api/v1/projects", token, map[string]string{"name": "Imported"})
	var project struct {
		ID string `json:"id"`
	}
	decodeBody(t, w, &project)

	w = doRequest(t, server, http.MethodPost, "/api/v1/projects/"+project.ID+"/parse-text", token, map[string]string{
		"text": "What is your annual budget? About two million dollars. Describe your programs. We run three after-school sites.",
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("parse-text: status %d: %s", w.Code, w.Body.String())
	}
	var parsed struct {
		Parsed    int `json:"parsed"`
		Questions []struct {
			Text   string `json:"text"`
			Answer string `json:"answer"`
		} `json:"questions"`
	}
	decodeBody(t, w, &parsed)
	if parsed.Parsed != 2 {
		t.Fatalf("expected 2 parsed questions, got %d", parsed.Parsed)
	}
	if parsed.Questions[0].Answer != "About two million dollars." {
		t.Fatalf("unexpected first answer: %q", parsed.Questions[0].Answer)
	}
}

func TestNarrativeCompileEndpoint(t *testing.T) {
	server, store := newTestServer(t)

	company := seedCompany(t, store, "Sunrise Org")
	seedUser(t, store, company.ID, "editor@sunrise.test", "sunrise-password", model.RoleEditor)
	token := login(t, server, "editor@sunrise.test", "sunrise-password")

	w := doRequest(t, server, http.MethodPost, "/api/v1/projects", token, map[string]string{
		"name":        "Food Pantry",
		"description": "Weekly groceries for families",
	})
	var project struct {
		ID string `json:"id"`
	}
	decodeBody(t, w, &project)

	w = doRequest(t, server, http.MethodPost, "/api/v1/projects/"+project.ID+"/questions", token, map[string]interface{}{
		"text":   "How many families are served?",
		"answer": "Roughly 120 per week.",
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("create question: status %d", w.Code)
	}

	w = doRequest(t, server, http.MethodPost, "/api/v1/projects/"+project.ID+"/compile", token, nil)
	if w.Code != http.StatusCreated {
		t.Fatalf("compile: status %d: %s", w.Code, w.Body.String())
	}
	var narrative struct {
		Content string `json:"content"`
	}
	decodeBody(t, w, &narrative)
	if narrative.Content == "" {
		t.Fatal("compiled narrative should not be empty")
	}

	w = doRequest(t, server, http.MethodGet, "/api/v1/projects/"+project.ID+"/narratives", token, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("list narratives: status %d", w.Code)
	}
	var narratives []struct {
		Content string `json:"content"`
	}
	decodeBody(t, w, &narratives)
	if len(narratives) != 1 || narratives[0].Content != narrative.Content {
		t.Fatalf("expected the compiled narrative back, got %d", len(narratives))
	}
}

func TestFileUploadAndDownload(t *testing.T) {
	server, store := newTestServer(t)

	company := seedCompany(t, store, "Sunrise Org")
	seedUser(t, store, company.ID, "editor@sunrise.test", "sunrise-password", model.RoleEditor)
	token := login(t, server, "editor@sunrise.test", "sunrise-password")

	var buf bytes.Buffer
	form := multipart.NewWriter(&buf)
	part, err := form.CreateFormFile("file", "rfp.txt")
	if err != nil {
		t.Fatalf("create form file: %v", err)
	}
	if _, err := part.Write([]byte("What is the match requirement? A 20 percent local match.")); err != nil {
		t.Fatalf("write form file: %v", err)
	}
	form.Close()

	req := httptest.NewRequest(http.MethodPost, "/api/v1/files", &buf)
	req.Header.Set("Content-Type", form.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	server.Router().ServeHTTP(w, req)
	if w.Code != http.StatusCreated {
		t.Fatalf("upload: status %d: %s", w.Code, w.Body.String())
	}
	var uploaded struct {
		ID       string `json:"id"`
		Filename string `json:"filename"`
		Size     int64  `json:"size"`
	}
	decodeBody(t, w, &uploaded)
	if uploaded.Filename != "rfp.txt" || uploaded.Size == 0 {
		t.Fatalf("unexpected upload response: %+v", uploaded)
	}

	w = doRequest(t, server, http.MethodGet, "/api/v1/files", token, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("list files: status %d", w.Code)
	}
	var files []struct {
		ID string `json:"id"`
	}
	decodeBody(t, w, &files)
	if len(files) != 1 || files[0].ID != uploaded.ID {
		t.Fatalf("expected the uploaded file listed, got %v", files)
	}

	w = doRequest(t, server, http.MethodGet, "/api/v1/files/"+uploaded.ID+"/download", token, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("download: status %d", w.Code)
	}
	if !bytes.Contains(w.Body.Bytes(), []byte("match requirement")) {
		t.Fatalf("download should return the stored bytes, got %q", w.Body.String())
	}
	if disposition := w.Header().Get("Content-Disposition"); disposition == "" {
		t.Fatal("download should set Content-Disposition")
	}
}

type stubReviewer struct {
	response string
	err      error
}

func (s *stubReviewer) Review(_ context.Context, project *model.Project, questions []model.Question, info ai.GrantInfo) (string, string, error) {
	return ai.BuildPrompt(project, questions, info), s.response, s.err
}

func TestAIReviewRecordsLog(t *testing.T) {
	server, store := newTestServerWithReviewer(t, &stubReviewer{response: "Strong fit for the stated purpose."})

	company := seedCompany(t, store, "Sunrise Org")
	seedUser(t, store, company.ID, "editor@sunrise.test", "sunrise-password", model.RoleEditor)
	token := login(t, server, "editor@sunrise.test", "sunrise-password")

	w := doRequest(t, server, http.MethodPost, "/api/v1/projects", token, map[string]string{"name": "Reviewed"})
	var project struct {
		ID string `json:"id"`
	}
	decodeBody(t, w, &project)

	w = doRequest(t, server, http.MethodPost, "/api/v1/projects/"+project.ID+"/review", token, map[string]string{
		"purpose": "expand literacy program",
		"funder":  "Community Foundation",
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("review: status %d: %s", w.Code, w.Body.String())
	}
	var review struct {
		Response string `json:"response"`
		Model    string `json:"model"`
	}
	decodeBody(t, w, &review)
	if review.Response != "Strong fit for the stated purpose." {
		t.Fatalf("unexpected review response: %q", review.Response)
	}
	if review.Model != "gpt-4o-mini" {
		t.Fatalf("unexpected model: %q", review.Model)
	}

	w = doRequest(t, server, http.MethodGet, "/api/v1/projects/"+project.ID+"/reviews", token, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("list reviews: status %d", w.Code)
	}
	var reviews []struct {
		Response string `json:"response"`
	}
	decodeBody(t, w, &reviews)
	if len(reviews) != 1 || reviews[0].Response != "Strong fit for the stated purpose." {
		t.Fatalf("expected the recorded review, got %d", len(reviews))
	}
}

func TestAIReviewUnavailableWithoutReviewer(t *testing.T) {
	server, store := newTestServer(t)

	company := seedCompany(t, store, "Sunrise Org")
	seedUser(t, store, company.ID, "editor@sunrise.test", "sunrise-password", model.RoleEditor)
	token := login(t, server, "editor@sunrise.test", "sunrise-password")

	w := doRequest(t, server, http.MethodPost, "/api/v1/projects", token, map[string]string{"name": "Reviewed"})
	var project struct {
		ID string `json:"id"`
	}
	decodeBody(t, w, &project)

	w = doRequest(t, server, http.MethodPost, "/api/v1/projects/"+project.ID+"/review", token, map[string]string{
		"purpose": "expand literacy program",
	})
	if w.Code != http.StatusServiceUnavailable {
		t.Fatalf("review without a configured client must be 503, got %d: %s", w.Code, w.Body.String())
	}
}

func TestCompanyMutationsScopedToOwnTenant(t *testing.T) {
	server, store := newTestServer(t)

	company := seedCompany(t, store, "Sunrise Org")
	rival := seedCompany(t, store, "Rival Org")
	seedUser(t, store, company.ID, "admin@sunrise.test", "sunrise-password", model.RoleAdmin)
	token := login(t, server, "admin@sunrise.test", "sunrise-password")

	rivalID := rival.ID.String()
	for _, attempt := range []struct {
		method string
		path   string
		body   interface{}
	}{
		{http.MethodPut, "/api/v1/companies/" + rivalID, map[string]string{"name": "Hijacked"}},
		{http.MethodPost, "/api/v1/companies/" + rivalID + "/archive", nil},
		{http.MethodDelete, "/api/v1/companies/" + rivalID, nil},
	} {
		w := doRequest(t, server, attempt.method, attempt.path, token, attempt.body)
		if w.Code != http.StatusForbidden {
			t.Fatalf("%s %s: admin of another company must get 403, got %d: %s",
				attempt.method, attempt.path, w.Code, w.Body.String())
		}
	}

	got, err := postgres.NewCompanyRepository(store.DB()).GetByID(context.Background(), rival.ID)
	if err != nil {
		t.Fatalf("rival company must survive cross-tenant attempts: %v", err)
	}
	if got.Name != "Rival Org" || got.Archived {
		t.Fatalf("rival company mutated across tenant boundary: %+v", got)
	}

	w := doRequest(t, server, http.MethodPut, "/api/v1/companies/"+company.ID.String(), token, map[string]string{
		"name": "Sunrise Renamed",
	})
	if w.Code != http.StatusOK {
		t.Fatalf("rename own company: status %d: %s", w.Code, w.Body.String())
	}

	w = doRequest(t, server, http.MethodGet, "/api/v1/companies/"+rivalID, token, nil)
	if w.Code != http.StatusForbidden {
		t.Fatalf("reading another company must be 403, got %d", w.Code)
	}
}
