// Command iserve is a CLI front-end for the community service platform.
// It talks to the API through the shared client layer; with -offline it
// works against the local seeded dataset instead.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"iserve/internal/client"
	"iserve/internal/model"
	"iserve/internal/persist"
	"iserve/internal/session"
	"iserve/internal/store"
	"iserve/internal/upload"

	"go.uber.org/zap"
)

func usage() {
	fmt.Fprintf(os.Stderr, `iserve CLI
Usage:
  iserve [-api URL] [-offline] <cmd> [args]

Commands:
  register        -u <username> -p <password>
  register-admin  -u <username> -p <password>
  login           -u <username> -p <password>
  logout
  whoami
  profile         [-email v] [-phone v] [-avatar v]
  demands         [-type t] [-user id] [-keyword kw] [-page n] [-size n]
  demand          <id>
  demand-create   -type t -title s [-desc s] [-addr s]
  demand-update   <id> [-title s] [-desc s] [-addr s] [-status s]
  demand-delete   <id>
  respond         <demandId> -content s
  responses       [-user id]
  response-update <id> [-content s] [-status s]
  response-delete <id>
  upload          <demand|response> <id> -file path [-replace] [-accept pat]
  file            <demand|response> <id> [-download] [-out path]
  file-delete     <demand|response> <id>
  stats           <creation|responded> [-types 1,2] [-locations 1,2] [-from t] [-to t]
`)
	os.Exit(2)
}

func printJSON(v interface{}) {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	_ = enc.Encode(v)
}

func fatal(err error) {
	fmt.Fprintln(os.Stderr, "error:", err)
	os.Exit(1)
}

func main() {
	apiURL := flag.String("api", "http://localhost:8080/v1", "API base URL")
	offline := flag.Bool("offline", false, "work against the local seeded dataset")
	flag.Usage = usage
	flag.Parse()

	if flag.NArg() < 1 {
		usage()
	}
	cmd := flag.Arg(0)
	args := flag.Args()[1:]

	logger, err := zap.NewProduction()
	if err != nil {
		fatal(err)
	}
	defer logger.Sync()

	files, err := persist.NewFileStore(persist.DefaultDir())
	if err != nil {
		fatal(err)
	}

	api := client.New(*apiURL, files, logger)
	sess := session.New(api, files, logger)

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	app := &app{ctx: ctx, api: api, sess: sess, files: files, log: logger, offline: *offline}
	app.dispatch(cmd, args)
}

type app struct {
	ctx     context.Context
	api     *client.Client
	sess    *session.Store
	files   *persist.FileStore
	log     *zap.Logger
	offline bool

	local *store.DemandStore
}

// localStore lazily builds the offline dataset, restoring any prior Save.
func (a *app) localStore() *store.DemandStore {
	if a.local == nil {
		a.local = store.New(a.files, a.log)
		a.local.Load()
	}
	return a.local
}

func (a *app) dispatch(cmd string, args []string) {
	switch cmd {
	case "register", "register-admin", "login":
		a.cmdAuth(cmd, args)
	case "logout":
		a.sess.Logout()
		fmt.Println("logged out")
	case "whoami":
		state := a.sess.Current()
		if !state.IsLoggedIn {
			fmt.Println("not logged in")
			return
		}
		printJSON(state.UserInfo)
	case "profile":
		a.cmdProfile(args)
	case "demands":
		a.cmdDemands(args)
	case "demand":
		a.cmdDemandGet(args)
	case "demand-create":
		a.cmdDemandCreate(args)
	case "demand-update":
		a.cmdDemandUpdate(args)
	case "demand-delete":
		a.cmdDemandDelete(args)
	case "respond":
		a.cmdRespond(args)
	case "responses":
		a.cmdResponses(args)
	case "response-update":
		a.cmdResponseUpdate(args)
	case "response-delete":
		a.cmdResponseDelete(args)
	case "upload":
		a.cmdUpload(args)
	case "file":
		a.cmdFile(args)
	case "file-delete":
		a.cmdFileDelete(args)
	case "stats":
		a.cmdStats(args)
	default:
		usage()
	}
}

func (a *app) cmdAuth(cmd string, args []string) {
	fs := flag.NewFlagSet(cmd, flag.ExitOnError)
	username := fs.String("u", "", "username")
	password := fs.String("p", "", "password")
	fs.Parse(args)
	if *username == "" || *password == "" {
		fatal(fmt.Errorf("%s requires -u and -p", cmd))
	}

	var ok bool
	switch cmd {
	case "register":
		ok = a.sess.Register(a.ctx, *username, *password)
	case "register-admin":
		ok = a.sess.RegisterAdmin(a.ctx, *username, *password)
	default:
		ok = a.sess.Login(a.ctx, *username, *password)
	}
	if !ok {
		fatal(fmt.Errorf("%s failed", cmd))
	}
	printJSON(a.sess.Current().UserInfo)
}

func (a *app) cmdProfile(args []string) {
	fs := flag.NewFlagSet("profile", flag.ExitOnError)
	email := fs.String("email", "", "email address")
	phone := fs.String("phone", "", "phone number")
	avatar := fs.String("avatar", "", "avatar URL")
	fs.Parse(args)

	patch := map[string]string{}
	if *email != "" {
		patch["email"] = *email
	}
	if *phone != "" {
		patch["phone"] = *phone
	}
	if *avatar != "" {
		patch["avatar"] = *avatar
	}
	if len(patch) == 0 {
		printJSON(a.sess.Current().UserInfo)
		return
	}
	if !a.sess.UpdateUserInfo(a.ctx, patch) {
		fatal(fmt.Errorf("profile update failed"))
	}
	printJSON(a.sess.Current().UserInfo)
}

func (a *app) cmdDemands(args []string) {
	fs := flag.NewFlagSet("demands", flag.ExitOnError)
	serviceType := fs.String("type", "", "service type filter (or 'all')")
	userID := fs.String("user", "", "owning user filter")
	keyword := fs.String("keyword", "", "keyword over title/description/address")
	page := fs.Int("page", 1, "page number")
	size := fs.Int("size", 10, "page size")
	fs.Parse(args)

	if a.offline {
		s := a.localStore()
		if *serviceType != "" {
			s.FilterByType(*serviceType)
		}
		if *userID != "" {
			s.FilterByUserID(*userID)
		}
		if *keyword != "" {
			s.Search(*keyword)
		}
		s.SetPage(*page, *size)
		items, pageInfo := s.PageItems()
		printJSON(map[string]interface{}{"items": items, "page": pageInfo})
		s.Save()
		return
	}

	list, err := a.api.ListDemands(a.ctx, client.ListDemandsQuery{
		Type:    *serviceType,
		UserID:  *userID,
		Keyword: *keyword,
		Limit:   *size,
		Offset:  (*page - 1) * *size,
	})
	if err != nil {
		fatal(err)
	}
	printJSON(list)
}

func (a *app) cmdDemandGet(args []string) {
	if len(args) < 1 {
		fatal(fmt.Errorf("demand requires an id"))
	}
	id := args[0]

	if a.offline {
		d := a.localStore().GetByID(id)
		if d == nil {
			fmt.Println("not found")
			return
		}
		printJSON(d)
		return
	}

	d, err := a.api.GetDemand(a.ctx, id)
	if err != nil {
		fatal(err)
	}
	if d == nil {
		fmt.Println("not found")
		return
	}
	printJSON(d)
}

func (a *app) cmdDemandCreate(args []string) {
	fs := flag.NewFlagSet("demand-create", flag.ExitOnError)
	serviceType := fs.String("type", "", "service type")
	title := fs.String("title", "", "title")
	desc := fs.String("desc", "", "description")
	addr := fs.String("addr", "", "address")
	fs.Parse(args)
	if *serviceType == "" || *title == "" {
		fatal(fmt.Errorf("demand-create requires -type and -title"))
	}

	if a.offline {
		s := a.localStore()
		d := s.Create(store.CreateInput{
			UserID:      a.sess.Current().UserInfo.ID,
			Type:        *serviceType,
			Title:       *title,
			Description: *desc,
			Address:     *addr,
		})
		s.Save()
		printJSON(d)
		return
	}

	d, err := a.api.CreateDemand(a.ctx, client.CreateDemandBody{
		Type:        *serviceType,
		LocationID:  model.ServiceTypeID(*serviceType),
		Title:       *title,
		Description: *desc,
		Address:     *addr,
	})
	if err != nil {
		fatal(err)
	}
	printJSON(d)
}

func (a *app) cmdDemandUpdate(args []string) {
	if len(args) < 1 {
		fatal(fmt.Errorf("demand-update requires an id"))
	}
	id := args[0]
	fs := flag.NewFlagSet("demand-update", flag.ExitOnError)
	title := fs.String("title", "", "title")
	desc := fs.String("desc", "", "description")
	addr := fs.String("addr", "", "address")
	status := fs.String("status", "", "status")
	fs.Parse(args[1:])

	strPtr := func(v string) *string {
		if v == "" {
			return nil
		}
		return &v
	}

	if a.offline {
		s := a.localStore()
		var statusPtr *model.DemandStatus
		if *status != "" {
			st := model.DemandStatus(*status)
			statusPtr = &st
		}
		d := s.Update(id, store.Patch{
			Title:       strPtr(*title),
			Description: strPtr(*desc),
			Address:     strPtr(*addr),
			Status:      statusPtr,
		})
		s.Save()
		if d == nil {
			fmt.Println("not found")
			return
		}
		printJSON(d)
		return
	}

	d, err := a.api.UpdateDemand(a.ctx, id, client.UpdateDemandBody{
		Title:       strPtr(*title),
		Description: strPtr(*desc),
		Address:     strPtr(*addr),
		Status:      strPtr(*status),
	})
	if err != nil {
		fatal(err)
	}
	printJSON(d)
}

func (a *app) cmdDemandDelete(args []string) {
	if len(args) < 1 {
		fatal(fmt.Errorf("demand-delete requires an id"))
	}
	if a.offline {
		s := a.localStore()
		s.Delete(args[0])
		s.Save()
		fmt.Println("deleted")
		return
	}
	if err := a.api.DeleteDemand(a.ctx, args[0]); err != nil {
		fatal(err)
	}
	fmt.Println("deleted")
}

func (a *app) cmdRespond(args []string) {
	if len(args) < 1 {
		fatal(fmt.Errorf("respond requires a demand id"))
	}
	demandID := args[0]
	fs := flag.NewFlagSet("respond", flag.ExitOnError)
	content := fs.String("content", "", "response content")
	fs.Parse(args[1:])
	if *content == "" {
		fatal(fmt.Errorf("respond requires -content"))
	}

	if a.offline {
		s := a.localStore()
		r := s.CreateResponse(store.CreateResponseInput{
			DemandID: demandID,
			UserID:   a.sess.Current().UserInfo.ID,
			Content:  *content,
		})
		s.Save()
		printJSON(r)
		return
	}

	r, err := a.api.CreateResponse(a.ctx, demandID, *content)
	if err != nil {
		fatal(err)
	}
	printJSON(r)
}

func (a *app) cmdResponses(args []string) {
	fs := flag.NewFlagSet("responses", flag.ExitOnError)
	userID := fs.String("user", "", "user id (defaults to the session user)")
	fs.Parse(args)

	uid := *userID
	if uid == "" {
		uid = a.sess.Current().UserInfo.ID
	}

	if a.offline {
		printJSON(a.localStore().ListMyResponses(uid))
		return
	}

	list, err := a.api.ListMyResponses(a.ctx, uid)
	if err != nil {
		fatal(err)
	}
	printJSON(list)
}

func (a *app) cmdResponseUpdate(args []string) {
	if len(args) < 1 {
		fatal(fmt.Errorf("response-update requires an id"))
	}
	id := args[0]
	fs := flag.NewFlagSet("response-update", flag.ExitOnError)
	content := fs.String("content", "", "content")
	status := fs.String("status", "", "status")
	fs.Parse(args[1:])

	strPtr := func(v string) *string {
		if v == "" {
			return nil
		}
		return &v
	}

	if a.offline {
		s := a.localStore()
		var statusPtr *model.ResponseStatus
		if *status != "" {
			st := model.ResponseStatus(*status)
			statusPtr = &st
		}
		r := s.UpdateResponse(id, store.ResponsePatch{
			Content: strPtr(*content),
			Status:  statusPtr,
		})
		s.Save()
		if r == nil {
			fmt.Println("not found")
			return
		}
		printJSON(r)
		return
	}

	r, err := a.api.UpdateResponse(a.ctx, id, client.UpdateResponseBody{
		Content: strPtr(*content),
		Status:  strPtr(*status),
	})
	if err != nil {
		fatal(err)
	}
	printJSON(r)
}

func (a *app) cmdResponseDelete(args []string) {
	if len(args) < 1 {
		fatal(fmt.Errorf("response-delete requires an id"))
	}
	if a.offline {
		s := a.localStore()
		s.DeleteResponse(args[0])
		s.Save()
		fmt.Println("deleted")
		return
	}
	if err := a.api.DeleteResponse(a.ctx, args[0]); err != nil {
		fatal(err)
	}
	fmt.Println("deleted")
}

func (a *app) cmdUpload(args []string) {
	if len(args) < 2 {
		fatal(fmt.Errorf("upload requires a resource and an id"))
	}
	resource, id := args[0], args[1]
	fs := flag.NewFlagSet("upload", flag.ExitOnError)
	path := fs.String("file", "", "file to upload")
	replace := fs.Bool("replace", false, "replace the existing file")
	accept := fs.String("accept", "*", "accepted patterns, e.g. '.pdf,image/*'")
	fs.Parse(args[2:])
	if *path == "" {
		fatal(fmt.Errorf("upload requires -file"))
	}

	f, err := os.Open(*path)
	if err != nil {
		fatal(err)
	}
	defer f.Close()
	stat, err := f.Stat()
	if err != nil {
		fatal(err)
	}

	info := upload.FileInfo{
		Name: filepath.Base(*path),
		Type: mimeTypeFor(*path),
		Size: stat.Size(),
	}

	reader, progress := upload.NewProgressReader(f, stat.Size())
	done := make(chan struct{})
	go func() {
		defer close(done)
		for pct := range progress {
			fmt.Fprintf(os.Stderr, "\rupload: %3d%%", pct)
		}
		fmt.Fprintln(os.Stderr)
	}()

	var stored *model.StoredFile
	if *replace {
		stored, err = a.api.ReplaceFile(a.ctx, resource, id, info, reader, *accept)
	} else {
		stored, err = a.api.UploadFile(a.ctx, resource, id, info, reader, *accept)
	}
	<-done
	if err != nil {
		fatal(err)
	}
	printJSON(stored)
}

func mimeTypeFor(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".png":
		return "image/png"
	case ".jpg", ".jpeg":
		return "image/jpeg"
	case ".pdf":
		return "application/pdf"
	case ".txt":
		return "text/plain"
	default:
		return "application/octet-stream"
	}
}

func (a *app) cmdFile(args []string) {
	if len(args) < 2 {
		fatal(fmt.Errorf("file requires a resource and an id"))
	}
	resource, id := args[0], args[1]
	fs := flag.NewFlagSet("file", flag.ExitOnError)
	download := fs.Bool("download", false, "download the file contents")
	out := fs.String("out", "", "output path (defaults to the server filename)")
	fs.Parse(args[2:])

	desc, data, err := a.api.GetLatestFile(a.ctx, resource, id, *download)
	if err != nil {
		fatal(err)
	}
	if desc == nil {
		fmt.Println("no file")
		return
	}

	if !*download {
		printJSON(desc)
		return
	}

	target := *out
	if target == "" {
		target = desc.Filename
	}
	if err := os.WriteFile(target, data, 0o644); err != nil {
		fatal(err)
	}
	fmt.Printf("saved %s (%d bytes)\n", target, len(data))
}

func (a *app) cmdFileDelete(args []string) {
	if len(args) < 2 {
		fatal(fmt.Errorf("file-delete requires a resource and an id"))
	}
	if err := a.api.DeleteFile(a.ctx, args[0], args[1]); err != nil {
		fatal(err)
	}
	fmt.Println("deleted")
}

func (a *app) cmdStats(args []string) {
	if len(args) < 1 {
		fatal(fmt.Errorf("stats requires 'creation' or 'responded'"))
	}
	series := args[0]
	fs := flag.NewFlagSet("stats", flag.ExitOnError)
	types := fs.String("types", "", "service type ids, comma separated")
	locations := fs.String("locations", "", "location ids, comma separated")
	from := fs.String("from", "", "earliest creation time (RFC3339)")
	to := fs.String("to", "", "latest creation time (RFC3339)")
	fs.Parse(args[1:])

	q := client.StatisticsQuery{}
	var err error
	if q.ServiceTypeIDs, err = splitInts(*types); err != nil {
		fatal(err)
	}
	if q.LocationIDs, err = splitInts(*locations); err != nil {
		fatal(err)
	}
	if *from != "" {
		t, err := time.Parse(time.RFC3339, *from)
		if err != nil {
			fatal(err)
		}
		q.EarliestCreate = &t
	}
	if *to != "" {
		t, err := time.Parse(time.RFC3339, *to)
		if err != nil {
			fatal(err)
		}
		q.LatestCreate = &t
	}

	var counts []model.MonthlyCount
	switch series {
	case "creation":
		counts, err = a.api.DemandCreationMonthly(a.ctx, q)
	case "responded":
		counts, err = a.api.DemandRespondedMonthly(a.ctx, q)
	default:
		fatal(fmt.Errorf("unknown series %q", series))
	}
	if err != nil {
		fatal(err)
	}
	printJSON(counts)
}

func splitInts(raw string) ([]int, error) {
	if raw == "" {
		return nil, nil
	}
	parts := strings.Split(raw, ",")
	out := make([]int, 0, len(parts))
	for _, p := range parts {
		n, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil {
			return nil, err
		}
		out = append(out, n)
	}
	return out, nil
}
