// Package testutil provides an in-memory CMS speaking the Strapi v4 REST dialect, for tests.
package testutil

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/dgrijalva/jwt-go"
	"github.com/labstack/echo/v4"

	"github.com/studytrack/studytrack/core"
)

const (
	APIToken      = "fake-api-token"
	usersColl     = "users"
	defaultSize   = 25
	tokenLifetime = 30 * 24 * time.Hour
)

// relations maps collection -> field -> related collection.
var relations = map[string]map[string]string{
	"subjects":       {"exam_course": "exam-courses"},
	"units":          {"subject": "subjects"},
	"chapters":       {"unit": "units"},
	"modules":        {"chapter": "chapters"},
	"contents":       {"module": "modules"},
	"students":       {"user": usersColl},
	"enrollments":    {"student": "students", "exam_course": "exam-courses"},
	"study-sessions": {"student": "students"},
	"todos":          {"student": "students"},
	"progresses":     {"student": "students", "content": "contents"},
}

// public collections can be read without a token.
var public = map[string]bool{
	"exam-courses": true, "subjects": true, "units": true, "chapters": true, "modules": true, "contents": true,
}

type record map[string]interface{}

// CMS is a fake CMS. Records are kept flat; relation fields hold the related id.
type CMS struct {
	srv    *httptest.Server
	secret string

	mu         sync.Mutex
	records    map[string][]record
	nextID     map[string]int
	passwords  map[int]string
	resetCodes map[string]int
	confirms   map[string]int
	down       bool
	hits       int
}

// NewCMS starts a fake CMS signing session tokens with secret; it is closed with the test.
func NewCMS(t *testing.T, secret string) *CMS {
	cms := &CMS{
		secret:     secret,
		records:    make(map[string][]record),
		nextID:     make(map[string]int),
		passwords:  make(map[int]string),
		resetCodes: make(map[string]int),
		confirms:   make(map[string]int),
	}
	cms.srv = httptest.NewServer(cms.router())
	t.Cleanup(cms.srv.Close)
	return cms
}

func (cms *CMS) URL() string { return cms.srv.URL }

// Config returns CMS settings pointing at cms, authenticated with the fake API token.
func (cms *CMS) Config() core.CMSConfig {
	return core.CMSConfig{
		URL:       cms.srv.URL,
		APIToken:  APIToken,
		JWTSecret: cms.secret,
		Timeout:   5 * time.Second,
	}
}

// SetDown makes every API call fail with a 500 until called with false.
func (cms *CMS) SetDown(down bool) {
	cms.mu.Lock()
	cms.down = down
	cms.mu.Unlock()
}

// Hits returns the number of API calls served.
func (cms *CMS) Hits() int {
	cms.mu.Lock()
	defer cms.mu.Unlock()
	return cms.hits
}

// Seeding

// AddUser creates a confirmed account and returns its id.
func (cms *CMS) AddUser(username, email, password string) int {
	cms.mu.Lock()
	defer cms.mu.Unlock()
	id := cms.insert(usersColl, record{
		"username":  username,
		"email":     strings.ToLower(email),
		"provider":  "local",
		"confirmed": true,
		"blocked":   false,
	})
	cms.passwords[id] = password
	return id
}

// Token issues a session token for userID.
func (cms *CMS) Token(userID int) string {
	claims := jwt.MapClaims{
		"id":  userID,
		"iat": time.Now().Unix(),
		"exp": time.Now().Add(tokenLifetime).Unix(),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(cms.secret))
	if err != nil {
		panic(err)
	}
	return token
}

// ResetCode returns a password reset code for userID.
func (cms *CMS) ResetCode(userID int) string {
	cms.mu.Lock()
	defer cms.mu.Unlock()
	code := "reset-" + strconv.Itoa(userID)
	cms.resetCodes[code] = userID
	return code
}

// ConfirmationToken returns an email confirmation token for userID and marks the account unconfirmed.
func (cms *CMS) ConfirmationToken(userID int) string {
	cms.mu.Lock()
	defer cms.mu.Unlock()
	token := "confirm-" + strconv.Itoa(userID)
	cms.confirms[token] = userID
	if usr := cms.find(usersColl, userID); usr != nil {
		usr["confirmed"] = false
	}
	return token
}

// Create inserts a record into collection and returns its id.
func (cms *CMS) Create(collection string, attrs map[string]interface{}) int {
	cms.mu.Lock()
	defer cms.mu.Unlock()
	return cms.insert(collection, normalizeAttrs(collection, attrs))
}

func (cms *CMS) AddExamCourse(title string, order int) int {
	return cms.Create("exam-courses", map[string]interface{}{
		"title": title, "slug": slugify(title), "order": order, "summary": title + " preparation",
	})
}

func (cms *CMS) AddContent(title, body string) int {
	return cms.Create("contents", map[string]interface{}{"title": title, "slug": slugify(title), "order": 1, "body": body})
}

func (cms *CMS) AddStudent(userID int, name, email, exam string, extra ...map[string]interface{}) int {
	attrs := map[string]interface{}{"name": name, "email": email, "exam": exam, "user": userID}
	for _, e := range extra {
		for k, v := range e {
			attrs[k] = v
		}
	}
	return cms.Create("students", attrs)
}

func (cms *CMS) AddEnrollment(studentID, courseID int, status string) int {
	return cms.Create("enrollments", map[string]interface{}{
		"student": studentID, "exam_course": courseID, "status": status,
		"enrolledAt": time.Now().UTC().Format(time.RFC3339),
	})
}

// Records returns a copy of the flat records of collection.
func (cms *CMS) Records(collection string) []map[string]interface{} {
	cms.mu.Lock()
	defer cms.mu.Unlock()
	out := make([]map[string]interface{}, 0, len(cms.records[collection]))
	for _, rec := range cms.records[collection] {
		cp := make(map[string]interface{}, len(rec))
		for k, v := range rec {
			cp[k] = v
		}
		out = append(out, cp)
	}
	return out
}

// storage (callers hold mu)

func (cms *CMS) insert(collection string, rec record) int {
	cms.nextID[collection]++
	id := cms.nextID[collection]
	now := time.Now().UTC().Format(time.RFC3339)
	rec["id"] = id
	rec["documentId"] = fmt.Sprintf("%s-%d", collection, id)
	rec["createdAt"] = now
	rec["updatedAt"] = now
	if public[collection] {
		rec["publishedAt"] = now
	}
	cms.records[collection] = append(cms.records[collection], rec)
	return id
}

func (cms *CMS) find(collection string, id int) record {
	for _, rec := range cms.records[collection] {
		if rec["id"] == id {
			return rec
		}
	}
	return nil
}

func (cms *CMS) remove(collection string, id int) bool {
	recs := cms.records[collection]
	for i, rec := range recs {
		if rec["id"] == id {
			cms.records[collection] = append(recs[:i], recs[i+1:]...)
			return true
		}
	}
	return false
}

func normalizeAttrs(collection string, attrs map[string]interface{}) record {
	rec := make(record, len(attrs))
	for k, v := range attrs {
		if _, isRel := relations[collection][k]; isRel {
			rec[k] = toID(v)
			continue
		}
		rec[k] = v
	}
	return rec
}

func toID(v interface{}) int {
	switch id := v.(type) {
	case int:
		return id
	case float64:
		return int(id)
	case string:
		n, _ := strconv.Atoi(id)
		return n
	case map[string]interface{}: // {"connect": [id]} / {"id": id}
		if n, ok := id["id"]; ok {
			return toID(n)
		}
		if conn, ok := id["connect"].([]interface{}); ok && len(conn) > 0 {
			return toID(conn[0])
		}
	}
	return 0
}

var nonSlug = regexp.MustCompile(`[^a-z0-9]+`)

func slugify(s string) string {
	return strings.Trim(nonSlug.ReplaceAllString(strings.ToLower(s), "-"), "-")
}

// rendering

func (cms *CMS) attributes(collection string, rec record, populate map[string]bool) map[string]interface{} {
	attrs := make(map[string]interface{}, len(rec))
	for k, v := range rec {
		if k == "id" {
			continue
		}
		target, isRel := relations[collection][k]
		if !isRel {
			attrs[k] = v
			continue
		}
		if !populate[k] && !populate["*"] {
			continue
		}
		var data interface{}
		if rel := cms.find(target, v.(int)); rel != nil {
			data = map[string]interface{}{"id": rel["id"], "attributes": cms.attributes(target, rel, nil)}
		}
		attrs[k] = map[string]interface{}{"data": data}
	}
	return attrs
}

func (cms *CMS) entry(collection string, rec record, populate map[string]bool) map[string]interface{} {
	return map[string]interface{}{"id": rec["id"], "attributes": cms.attributes(collection, rec, populate)}
}

func userJSON(rec record) map[string]interface{} {
	out := make(map[string]interface{}, len(rec))
	for k, v := range rec {
		out[k] = v
	}
	return out
}

// querying

var bracket = regexp.MustCompile(`\[([^\]]*)\]`)

type filter struct {
	path  []string
	op    string
	value string
}

func parseFilters(params url.Values) []filter {
	var filters []filter
	for key, vals := range params {
		if !strings.HasPrefix(key, "filters[") || len(vals) == 0 {
			continue
		}
		var segs []string
		for _, m := range bracket.FindAllStringSubmatch(key, -1) {
			segs = append(segs, m[1])
		}
		if len(segs) < 2 || !strings.HasPrefix(segs[len(segs)-1], "$") {
			continue
		}
		filters = append(filters, filter{path: segs[:len(segs)-1], op: segs[len(segs)-1], value: vals[0]})
	}
	return filters
}

func parsePopulate(params url.Values) map[string]bool {
	populate := make(map[string]bool)
	for key, vals := range params {
		switch {
		case key == "populate":
			for _, v := range vals {
				for _, p := range strings.Split(v, ",") {
					populate[strings.TrimSpace(p)] = true
				}
			}
		case strings.HasPrefix(key, "populate["):
			for _, v := range vals {
				populate[v] = true
			}
		}
	}
	return populate
}

func (cms *CMS) resolve(collection string, rec record, path []string) (interface{}, bool) {
	if rec == nil || len(path) == 0 {
		return nil, false
	}
	val, ok := rec[path[0]]
	if len(path) == 1 {
		return val, ok
	}
	target, isRel := relations[collection][path[0]]
	if !isRel || !ok {
		return nil, false
	}
	return cms.resolve(target, cms.find(target, val.(int)), path[1:])
}

func (cms *CMS) matches(collection string, rec record, f filter) bool {
	val, ok := cms.resolve(collection, rec, f.path)
	if !ok {
		return f.op == "$null" && f.value == "true"
	}
	switch f.op {
	case "$eq":
		return compare(val, f.value) == 0
	case "$ne":
		return compare(val, f.value) != 0
	case "$gt":
		return compare(val, f.value) > 0
	case "$gte":
		return compare(val, f.value) >= 0
	case "$lt":
		return compare(val, f.value) < 0
	case "$lte":
		return compare(val, f.value) <= 0
	case "$containsi":
		return strings.Contains(strings.ToLower(fmt.Sprint(val)), strings.ToLower(f.value))
	case "$null":
		return (val == nil) == (f.value == "true")
	}
	return false
}

func compare(val interface{}, s string) int {
	var n float64
	switch v := val.(type) {
	case int:
		n = float64(v)
	case float64:
		n = v
	default:
		return strings.Compare(fmt.Sprint(val), s)
	}
	other, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return strings.Compare(fmt.Sprint(val), s)
	}
	switch {
	case n < other:
		return -1
	case n > other:
		return 1
	}
	return 0
}

func sortRecords(recs []record, params url.Values) {
	var keys []string
	for i := 0; ; i++ {
		v := params.Get("sort[" + strconv.Itoa(i) + "]")
		if v == "" {
			break
		}
		keys = append(keys, v)
	}
	if v := params.Get("sort"); v != "" {
		keys = append(keys, strings.Split(v, ",")...)
	}
	sort.SliceStable(recs, func(i, j int) bool {
		for _, key := range keys {
			parts := strings.SplitN(key, ":", 2)
			c := compareValues(recs[i][parts[0]], recs[j][parts[0]])
			if c == 0 {
				continue
			}
			if len(parts) == 2 && strings.EqualFold(parts[1], "desc") {
				return c > 0
			}
			return c < 0
		}
		return false
	})
}

func compareValues(a, b interface{}) int {
	if a == nil {
		a = ""
	}
	if b == nil {
		b = ""
	}
	if _, isStr := a.(string); !isStr {
		return compare(a, fmt.Sprint(b))
	}
	return strings.Compare(a.(string), fmt.Sprint(b))
}

// HTTP

type errBody struct {
	Status  int                    `json:"status"`
	Name    string                 `json:"name"`
	Message string                 `json:"message"`
	Details map[string]interface{} `json:"details"`
}

func cmsError(c echo.Context, status int, name, msg string) error {
	return c.JSON(status, map[string]interface{}{
		"data":  nil,
		"error": errBody{Status: status, Name: name, Message: msg, Details: map[string]interface{}{}},
	})
}

func (cms *CMS) router() *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.GET("/_health", func(c echo.Context) error { return c.NoContent(http.StatusNoContent) })

	api := e.Group("/api", cms.counter)
	api.POST("/auth/local/register", cms.register)
	api.POST("/auth/local", cms.login)
	api.POST("/auth/forgot-password", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]bool{"ok": true})
	})
	api.POST("/auth/reset-password", cms.resetPassword)
	api.GET("/auth/email-confirmation", cms.confirmEmail)
	api.POST("/auth/send-email-confirmation", cms.sendEmailConfirmation)
	api.GET("/users/me", cms.me)

	api.GET("/:collection", cms.list)
	api.GET("/:collection/:id", cms.get)
	api.POST("/:collection", cms.create)
	api.PUT("/:collection/:id", cms.update)
	api.DELETE("/:collection/:id", cms.delete)
	return e
}

func (cms *CMS) counter(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		cms.mu.Lock()
		cms.hits++
		down := cms.down
		cms.mu.Unlock()
		if down {
			return cmsError(c, http.StatusInternalServerError, "InternalServerError", "Internal Server Error")
		}
		return next(c)
	}
}

// auth returns the user id of the session token (0 for the API token).
func (cms *CMS) auth(c echo.Context) (userID int, ok bool) {
	header := c.Request().Header.Get("Authorization")
	if !strings.HasPrefix(header, "Bearer ") {
		return 0, false
	}
	raw := strings.TrimPrefix(header, "Bearer ")
	if raw == APIToken {
		return 0, true
	}
	claims := jwt.MapClaims{}
	_, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (interface{}, error) {
		return []byte(cms.secret), nil
	})
	if err != nil {
		return 0, false
	}
	id, _ := claims["id"].(float64)
	return int(id), id > 0
}

func (cms *CMS) session(c echo.Context, userID int, status int) error {
	usr := cms.find(usersColl, userID)
	return c.JSON(status, map[string]interface{}{"jwt": cms.Token(userID), "user": userJSON(usr)})
}

func (cms *CMS) register(c echo.Context) error {
	var body struct {
		Username string `json:"username"`
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := c.Bind(&body); err != nil {
		return cmsError(c, http.StatusBadRequest, "ValidationError", err.Error())
	}
	cms.mu.Lock()
	defer cms.mu.Unlock()
	for _, usr := range cms.records[usersColl] {
		if strings.EqualFold(usr["email"].(string), body.Email) {
			return cmsError(c, http.StatusBadRequest, "ApplicationError", "Email already taken")
		}
		if usr["username"] == body.Username {
			return cmsError(c, http.StatusBadRequest, "ApplicationError", "Username already taken")
		}
	}
	id := cms.insert(usersColl, record{
		"username":  body.Username,
		"email":     strings.ToLower(body.Email),
		"provider":  "local",
		"confirmed": true,
		"blocked":   false,
	})
	cms.passwords[id] = body.Password
	return cms.session(c, id, http.StatusOK)
}

func (cms *CMS) login(c echo.Context) error {
	var body struct {
		Identifier string `json:"identifier"`
		Password   string `json:"password"`
	}
	if err := c.Bind(&body); err != nil {
		return cmsError(c, http.StatusBadRequest, "ValidationError", err.Error())
	}
	cms.mu.Lock()
	defer cms.mu.Unlock()
	for _, usr := range cms.records[usersColl] {
		id := usr["id"].(int)
		if (usr["username"] == body.Identifier || strings.EqualFold(usr["email"].(string), body.Identifier)) &&
			cms.passwords[id] == body.Password {
			return cms.session(c, id, http.StatusOK)
		}
	}
	return cmsError(c, http.StatusBadRequest, "ValidationError", "Invalid identifier or password")
}

func (cms *CMS) resetPassword(c echo.Context) error {
	var body struct {
		Code                 string `json:"code"`
		Password             string `json:"password"`
		PasswordConfirmation string `json:"passwordConfirmation"`
	}
	if err := c.Bind(&body); err != nil {
		return cmsError(c, http.StatusBadRequest, "ValidationError", err.Error())
	}
	cms.mu.Lock()
	defer cms.mu.Unlock()
	id, ok := cms.resetCodes[body.Code]
	if !ok {
		return cmsError(c, http.StatusBadRequest, "ValidationError", "Incorrect code provided")
	}
	if body.Password != body.PasswordConfirmation {
		return cmsError(c, http.StatusBadRequest, "ValidationError", "Passwords do not match")
	}
	delete(cms.resetCodes, body.Code)
	cms.passwords[id] = body.Password
	return cms.session(c, id, http.StatusOK)
}

func (cms *CMS) confirmEmail(c echo.Context) error {
	cms.mu.Lock()
	defer cms.mu.Unlock()
	id, ok := cms.confirms[c.QueryParam("confirmation")]
	if !ok {
		return cmsError(c, http.StatusBadRequest, "ValidationError", "Invalid token")
	}
	delete(cms.confirms, c.QueryParam("confirmation"))
	cms.find(usersColl, id)["confirmed"] = true
	return c.Redirect(http.StatusMovedPermanently, "http://localhost:3000/auth/email-confirmation")
}

func (cms *CMS) sendEmailConfirmation(c echo.Context) error {
	var body struct {
		Email string `json:"email"`
	}
	if err := c.Bind(&body); err != nil {
		return cmsError(c, http.StatusBadRequest, "ValidationError", err.Error())
	}
	return c.JSON(http.StatusOK, map[string]interface{}{"email": body.Email, "sent": true})
}

func (cms *CMS) me(c echo.Context) error {
	userID, ok := cms.auth(c)
	if !ok || userID == 0 {
		return cmsError(c, http.StatusUnauthorized, "UnauthorizedError", "Missing or invalid credentials")
	}
	cms.mu.Lock()
	defer cms.mu.Unlock()
	usr := cms.find(usersColl, userID)
	if usr == nil {
		return cmsError(c, http.StatusNotFound, "NotFoundError", "Not Found")
	}
	return c.JSON(http.StatusOK, userJSON(usr))
}

func (cms *CMS) allowed(c echo.Context, collection string) error {
	if _, known := relations[collection]; !known && !public[collection] {
		return cmsError(c, http.StatusNotFound, "NotFoundError", "Not Found")
	}
	if _, ok := cms.auth(c); !ok && (!public[collection] || c.Request().Method != http.MethodGet) {
		return cmsError(c, http.StatusForbidden, "ForbiddenError", "Forbidden")
	}
	return nil
}

func (cms *CMS) list(c echo.Context) error {
	collection := c.Param("collection")
	if err := cms.allowed(c, collection); err != nil {
		return err
	}
	params := c.QueryParams()
	filters := parseFilters(params)
	populate := parsePopulate(params)

	cms.mu.Lock()
	defer cms.mu.Unlock()
	var matched []record
outer:
	for _, rec := range cms.records[collection] {
		for _, f := range filters {
			if !cms.matches(collection, rec, f) {
				continue outer
			}
		}
		matched = append(matched, rec)
	}
	sortRecords(matched, params)

	page, _ := strconv.Atoi(params.Get("pagination[page]"))
	if page < 1 {
		page = 1
	}
	size, _ := strconv.Atoi(params.Get("pagination[pageSize]"))
	if size < 1 {
		size = defaultSize
	}
	total := len(matched)
	start, end := (page-1)*size, page*size
	if start > total {
		start = total
	}
	if end > total {
		end = total
	}

	data := make([]interface{}, 0, end-start)
	for _, rec := range matched[start:end] {
		data = append(data, cms.entry(collection, rec, populate))
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"data": data,
		"meta": map[string]interface{}{"pagination": map[string]int{
			"page": page, "pageSize": size, "pageCount": (total + size - 1) / size, "total": total,
		}},
	})
}

func (cms *CMS) get(c echo.Context) error {
	collection := c.Param("collection")
	if err := cms.allowed(c, collection); err != nil {
		return err
	}
	id, _ := strconv.Atoi(c.Param("id"))
	cms.mu.Lock()
	defer cms.mu.Unlock()
	rec := cms.find(collection, id)
	if rec == nil {
		return cmsError(c, http.StatusNotFound, "NotFoundError", "Not Found")
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"data": cms.entry(collection, rec, parsePopulate(c.QueryParams())),
		"meta": map[string]interface{}{},
	})
}

func bindData(c echo.Context) (map[string]interface{}, error) {
	var body struct {
		Data map[string]interface{} `json:"data"`
	}
	if err := c.Bind(&body); err != nil {
		return nil, err
	}
	if body.Data == nil {
		return nil, fmt.Errorf("missing \"data\" payload in the request body")
	}
	return body.Data, nil
}

func (cms *CMS) create(c echo.Context) error {
	collection := c.Param("collection")
	if err := cms.allowed(c, collection); err != nil {
		return err
	}
	data, err := bindData(c)
	if err != nil {
		return cmsError(c, http.StatusBadRequest, "ValidationError", err.Error())
	}
	cms.mu.Lock()
	defer cms.mu.Unlock()
	id := cms.insert(collection, normalizeAttrs(collection, data))
	return c.JSON(http.StatusOK, map[string]interface{}{
		"data": cms.entry(collection, cms.find(collection, id), nil),
		"meta": map[string]interface{}{},
	})
}

func (cms *CMS) update(c echo.Context) error {
	collection := c.Param("collection")
	if err := cms.allowed(c, collection); err != nil {
		return err
	}
	id, _ := strconv.Atoi(c.Param("id"))
	data, err := bindData(c)
	if err != nil {
		return cmsError(c, http.StatusBadRequest, "ValidationError", err.Error())
	}
	cms.mu.Lock()
	defer cms.mu.Unlock()
	rec := cms.find(collection, id)
	if rec == nil {
		return cmsError(c, http.StatusNotFound, "NotFoundError", "Not Found")
	}
	for k, v := range normalizeAttrs(collection, data) {
		rec[k] = v
	}
	rec["updatedAt"] = time.Now().UTC().Format(time.RFC3339)
	return c.JSON(http.StatusOK, map[string]interface{}{
		"data": cms.entry(collection, rec, nil),
		"meta": map[string]interface{}{},
	})
}

func (cms *CMS) delete(c echo.Context) error {
	collection := c.Param("collection")
	if err := cms.allowed(c, collection); err != nil {
		return err
	}
	id, _ := strconv.Atoi(c.Param("id"))
	cms.mu.Lock()
	defer cms.mu.Unlock()
	rec := cms.find(collection, id)
	if rec == nil || !cms.remove(collection, id) {
		return cmsError(c, http.StatusNotFound, "NotFoundError", "Not Found")
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"data": cms.entry(collection, rec, nil),
		"meta": map[string]interface{}{},
	})
}
