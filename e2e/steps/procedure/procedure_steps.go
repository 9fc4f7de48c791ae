package procedure

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"github.com/cucumber/godog"
)

// TestContext interface defines the methods needed from the main test context
type TestContext interface {
	ActAs(areaID string)
	POST(path string, body any) error
	PUT(path string, body any) error
	GET(path string) error
	Admin(method, path string, body any) error
	LastStatus() int
	LastBody() []byte
	GetResponseField(path string) (any, error)
	Save(name string, v any)
	Load(name string) (any, bool)
}

// RegisterSteps registers procedure routing step definitions
func RegisterSteps(ctx *godog.ScenarioContext, tc TestContext) {
	steps := &procedureSteps{tc: tc}

	ctx.Step(`^the calendar is open all week$`, steps.openCalendar)
	ctx.Step(`^the admin creates area "([^"]*)" of type "([^"]*)" as "([^"]*)"$`, steps.createArea)
	ctx.Step(`^I act from area "([^"]*)"$`, steps.actFrom)
	ctx.Step(`^I register a procedure "([^"]*)" for "([^"]*)"$`, steps.register)
	ctx.Step(`^I register a procedure "([^"]*)" for "([^"]*)" with a copy to "([^"]*)"$`, steps.registerWithCopy)
	ctx.Step(`^I take the registered procedure from my "([^"]*)" inbox$`, steps.takeFromInbox)
	ctx.Step(`^my "([^"]*)" inbox should not contain the registered procedure$`, steps.inboxShouldNotContain)
	ctx.Step(`^I receive the flow$`, steps.receive)
	ctx.Step(`^I derive the flow to "([^"]*)"$`, steps.derive)
	ctx.Step(`^I finalize the flow$`, steps.finalize)
	ctx.Step(`^I reject the flow with comment "([^"]*)"$`, steps.reject)
	ctx.Step(`^I observe the flow with comment "([^"]*)"$`, steps.observe)
	ctx.Step(`^the history of the registered procedure should have (\d+) flows$`, steps.historyShouldHave)
}

type procedureSteps struct {
	tc TestContext
}

func (s *procedureSteps) openCalendar(context.Context) error {
	var schedules []map[string]any
	for weekday := 0; weekday < 6; weekday++ {
		schedules = append(schedules, map[string]any{"weekday": weekday, "start_time": "00:00", "end_time": "23:59"})
	}
	if err := s.tc.Admin(http.MethodPut, "/api/work-schedules", map[string]any{"schedules": schedules}); err != nil {
		return err
	}
	if s.tc.LastStatus() != http.StatusOK {
		return fmt.Errorf("replace schedules: status %d: %s", s.tc.LastStatus(), s.tc.LastBody())
	}
	if err := s.tc.GET("/api/check-schedule"); err != nil {
		return err
	}
	status, _ := s.tc.GetResponseField("status")
	if status != "IN_SCHEDULE" {
		// Sundays and holidays can never be opened.
		return godog.ErrSkip
	}
	return nil
}

func (s *procedureSteps) createArea(_ context.Context, name, areaType, alias string) error {
	if err := s.tc.Admin(http.MethodPost, "/api/areas", map[string]any{"agency_id": 1, "name": name, "type": areaType}); err != nil {
		return err
	}
	if s.tc.LastStatus() != http.StatusCreated {
		return fmt.Errorf("create area: status %d: %s", s.tc.LastStatus(), s.tc.LastBody())
	}
	areaID, err := s.tc.GetResponseField("id")
	if err != nil {
		return err
	}
	s.tc.Save("area:"+alias, areaID)
	return nil
}

func (s *procedureSteps) areaID(alias string) (float64, error) {
	v, ok := s.tc.Load("area:" + alias)
	if !ok {
		return 0, fmt.Errorf("unknown area %q", alias)
	}
	return v.(float64), nil
}

func (s *procedureSteps) actFrom(_ context.Context, alias string) error {
	areaID, err := s.areaID(alias)
	if err != nil {
		return err
	}
	s.tc.ActAs(strconv.FormatInt(int64(areaID), 10))
	s.tc.Save("current", areaID)
	return nil
}

func (s *procedureSteps) register(ctx context.Context, subject, dest string) error {
	return s.registerWithCopy(ctx, subject, dest, "")
}

func (s *procedureSteps) registerWithCopy(_ context.Context, subject, dest, copyTo string) error {
	from, ok := s.tc.Load("current")
	if !ok {
		return fmt.Errorf("no active area")
	}
	destID, err := s.areaID(dest)
	if err != nil {
		return err
	}
	body := map[string]any{
		"agency_id":            1,
		"subject":              subject,
		"sender_name":          "Maria Quispe",
		"from_area_id":         from,
		"destination_area_ids": []float64{destID},
	}
	if copyTo != "" {
		copyID, err := s.areaID(copyTo)
		if err != nil {
			return err
		}
		body["copy_area_ids"] = []float64{copyID}
	}
	if err := s.tc.POST("/api/procedures", body); err != nil {
		return err
	}
	if s.tc.LastStatus() == http.StatusCreated {
		code, err := s.tc.GetResponseField("code")
		if err != nil {
			return err
		}
		s.tc.Save("code", code)
	}
	return nil
}

type inboxPage struct {
	Count int `json:"count"`
	Results []struct {
		ID   int64  `json:"id"`
		Code string `json:"code"`
	} `json:"results"`
}

func (s *procedureSteps) findInInbox(kind string) (int64, bool, error) {
	code, ok := s.tc.Load("code")
	if !ok {
		return 0, false, fmt.Errorf("no registered procedure")
	}
	if err := s.tc.GET("/api/inbox/" + kind + "?page_size=100"); err != nil {
		return 0, false, err
	}
	if s.tc.LastStatus() != http.StatusOK {
		return 0, false, fmt.Errorf("inbox %s: status %d: %s", kind, s.tc.LastStatus(), s.tc.LastBody())
	}
	var page inboxPage
	if err := json.Unmarshal(s.tc.LastBody(), &page); err != nil {
		return 0, false, err
	}
	for _, f := range page.Results {
		if f.Code == code {
			return f.ID, true, nil
		}
	}
	return 0, false, nil
}

func (s *procedureSteps) takeFromInbox(_ context.Context, kind string) error {
	flowID, found, err := s.findInInbox(kind)
	if err != nil {
		return err
	}
	if !found {
		return fmt.Errorf("registered procedure not in %s inbox: %s", kind, s.tc.LastBody())
	}
	s.tc.Save("flow", flowID)
	return nil
}

func (s *procedureSteps) inboxShouldNotContain(_ context.Context, kind string) error {
	_, found, err := s.findInInbox(kind)
	if err != nil {
		return err
	}
	if found {
		return fmt.Errorf("registered procedure still in %s inbox", kind)
	}
	return nil
}

func (s *procedureSteps) flowPath(action string) (string, error) {
	flowID, ok := s.tc.Load("flow")
	if !ok {
		return "", fmt.Errorf("no flow taken from an inbox")
	}
	return fmt.Sprintf("/api/flows/%d/%s", flowID, action), nil
}

func (s *procedureSteps) transition(action string, body any) error {
	path, err := s.flowPath(action)
	if err != nil {
		return err
	}
	return s.tc.POST(path, body)
}

func (s *procedureSteps) receive(context.Context) error {
	return s.transition("receive", nil)
}

func (s *procedureSteps) derive(_ context.Context, dest string) error {
	destID, err := s.areaID(dest)
	if err != nil {
		return err
	}
	return s.transition("derive", map[string]any{"destination_area_ids": []float64{destID}})
}

func (s *procedureSteps) finalize(context.Context) error {
	return s.transition("finalize", nil)
}

func (s *procedureSteps) reject(_ context.Context, comment string) error {
	return s.transition("reject", map[string]any{"comment": comment})
}

func (s *procedureSteps) observe(_ context.Context, comment string) error {
	return s.transition("observe", map[string]any{"comment": comment})
}

func (s *procedureSteps) historyShouldHave(_ context.Context, want int) error {
	code, ok := s.tc.Load("code")
	if !ok {
		return fmt.Errorf("no registered procedure")
	}
	if err := s.tc.GET(fmt.Sprintf("/api/flows?code=%s", code)); err != nil {
		return err
	}
	var flows []json.RawMessage
	if err := json.Unmarshal(s.tc.LastBody(), &flows); err != nil {
		return err
	}
	if len(flows) != want {
		return fmt.Errorf("expected %d flows in history, got %d", want, len(flows))
	}
	return nil
}
