package server

import (
	"context"
	"encoding/json"
	"fmt"
	"image"
	"image/color"
	"path/filepath"

	"github.com/ironsheep/red-numbers/internal/batch"
	"github.com/ironsheep/red-numbers/internal/config"
	"github.com/ironsheep/red-numbers/internal/detection"
	"github.com/ironsheep/red-numbers/internal/errors"
	"github.com/ironsheep/red-numbers/internal/export"
	"github.com/ironsheep/red-numbers/internal/imaging"
)

// ToolCallParams represents the parameters for a tools/call MCP request.
type ToolCallParams struct {
	// Name is the tool to invoke (e.g., "sheet_process").
	Name string `json:"name"`

	// Arguments contains the tool-specific parameters as JSON.
	Arguments json.RawMessage `json:"arguments"`
}

// handleToolsCall processes a tools/call request and executes the specified tool.
//
// The response wraps the tool result in MCP's content format:
//
//	{
//	  "content": [{"type": "text", "text": "<JSON result>"}]
//	}
//
// Tool execution errors return a JSON-RPC error response with code -32000.
func (s *Server) handleToolsCall(req *MCPRequest) *MCPResponse {
	var params ToolCallParams
	if err := json.Unmarshal(req.Params, &params); err != nil {
		return s.errorResponse(req.ID, -32602, "Invalid params", err.Error())
	}

	result, err := s.executeTool(params.Name, params.Arguments)
	if err != nil {
		s.log.Debug("tool failed", "tool", params.Name, "error", err)
		return s.errorResponse(req.ID, -32000, "Tool execution failed", err.Error())
	}

	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      req.ID,
		Result: map[string]interface{}{
			"content": []map[string]interface{}{
				{
					"type": "text",
					"text": mustMarshalJSON(result),
				},
			},
		},
	}
}

// executeTool dispatches tool execution to the appropriate handler function.
func (s *Server) executeTool(name string, args json.RawMessage) (interface{}, error) {
	if len(args) == 0 {
		args = json.RawMessage("{}")
	}

	switch name {
	// Pipeline
	case "sheet_process":
		return s.handleSheetProcess(args)
	case "sheet_process_folder":
		return s.handleSheetProcessFolder(args)

	// Tuning
	case "sheet_sample_hsv":
		return s.handleSheetSampleHSV(args)
	case "sheet_red_regions":
		return s.handleSheetRedRegions(args)
	case "sheet_motor_blocks":
		return s.handleSheetMotorBlocks(args)
	case "presets_list":
		return s.handlePresetsList()

	// OCR
	case "ocr_status":
		return s.handleOCRStatus()

	default:
		return nil, fmt.Errorf("unknown tool: %s", name)
	}
}

// errorResponse creates a JSON-RPC error response with the given details.
func (s *Server) errorResponse(id interface{}, code int, message, data string) *MCPResponse {
	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      id,
		Error: &MCPError{
			Code:    code,
			Message: message,
			Data:    data,
		},
	}
}

// mustMarshalJSON converts a value to pretty-printed JSON string.
// On marshal failure it returns an empty string.
func mustMarshalJSON(v interface{}) string {
	b, _ := json.MarshalIndent(v, "", "  ")
	return string(b)
}

// thresholdArgs are the optional S/V overrides accepted by the detection tools.
type thresholdArgs struct {
	Preset string `json:"preset"`
	SMin   *int   `json:"s_min"`
	VMin   *int   `json:"v_min"`
}

// configFor derives the configuration of one tool call from the server's.
func (s *Server) configFor(t thresholdArgs) (config.Config, error) {
	cfg := s.cfg.Clone()
	if t.Preset != "" {
		var err error
		if cfg, err = cfg.WithPreset(t.Preset); err != nil {
			return cfg, err
		}
	}
	if t.SMin != nil || t.VMin != nil {
		sMin, vMin := cfg.Color.Range1.Lower.S, cfg.Color.Range1.Lower.V
		if t.SMin != nil {
			sMin = *t.SMin
		}
		if t.VMin != nil {
			vMin = *t.VMin
		}
		cfg = cfg.WithSaturationValue(sMin, vMin)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, errors.NewInvalidConfigError(err)
	}
	return cfg, nil
}

// === Pipeline Handlers ===

type sheetProcessArgs struct {
	Path string `json:"path"`
	thresholdArgs
}

type sheetProcessResult struct {
	File       string   `json:"file"`
	Numbers    []string `json:"numbers"`
	MotorCodes []string `json:"motor_codes"`
	SMin       int      `json:"s_min"`
	VMin       int      `json:"v_min"`
}

func (s *Server) handleSheetProcess(args json.RawMessage) (interface{}, error) {
	var a sheetProcessArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	if a.Path == "" {
		return nil, fmt.Errorf("path is required")
	}
	cfg, err := s.configFor(a.thresholdArgs)
	if err != nil {
		return nil, err
	}

	engine, err := s.factory()
	if err != nil {
		return nil, errors.NewOCRUnavailableError(err)
	}
	defer engine.Close()

	p, err := detection.NewProcessor(cfg, engine, detection.WithLogger(s.log))
	if err != nil {
		return nil, err
	}
	res, err := p.Process(a.Path)
	if err != nil {
		return nil, err
	}
	return sheetProcessResult{
		File:       imaging.FileID(a.Path),
		Numbers:    res.Numbers,
		MotorCodes: res.MotorCodes,
		SMin:       cfg.Color.Range1.Lower.S,
		VMin:       cfg.Color.Range1.Lower.V,
	}, nil
}

type sheetFolderArgs struct {
	Input   string `json:"input"`
	Output  string `json:"output"`
	Name    string `json:"name"`
	Workers int    `json:"workers"`
	thresholdArgs
}

type failedImage struct {
	File  string `json:"file"`
	Error string `json:"error"`
}

type sheetFolderResult struct {
	Output  string        `json:"output"`
	Images  int           `json:"images"`
	Rows    int           `json:"rows"`
	Failed  []failedImage `json:"failed"`
	Seconds float64       `json:"seconds"`
}

func (s *Server) handleSheetProcessFolder(args json.RawMessage) (interface{}, error) {
	var a sheetFolderArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	if a.Input == "" {
		return nil, fmt.Errorf("input is required")
	}
	cfg, err := s.configFor(a.thresholdArgs)
	if err != nil {
		return nil, err
	}

	paths, err := imaging.ListImages(a.Input, cfg.Extensions)
	if err != nil {
		return nil, errors.NewInputMissingError(a.Input, err)
	}
	if len(paths) == 0 {
		return nil, errors.NewNoImagesError(a.Input)
	}

	res, err := batch.Run(context.Background(), cfg, paths, batch.Options{
		Workers: a.Workers,
		Factory: s.factory,
		Logger:  s.log,
	})
	if err != nil {
		return nil, err
	}

	outDir := a.Output
	if outDir == "" {
		outDir = a.Input
	}
	rows := batch.Rows(res)
	outPath := export.OutputPath(outDir, a.Name)
	if err := export.Write(outPath, rows); err != nil {
		return nil, err
	}

	failed := make([]failedImage, 0, len(res.Failed))
	for _, f := range res.Failed {
		failed = append(failed, failedImage{File: filepath.Base(f.Path), Error: f.Err.Error()})
	}
	return sheetFolderResult{
		Output:  outPath,
		Images:  len(res.Order),
		Rows:    len(rows),
		Failed:  failed,
		Seconds: res.Elapsed.Seconds(),
	}, nil
}

// === Tuning Handlers ===

type sampleHSVArgs struct {
	Path string `json:"path"`
	X    int    `json:"x"`
	Y    int    `json:"y"`
	thresholdArgs
}

type sampleHSVResult struct {
	X     int    `json:"x"`
	Y     int    `json:"y"`
	RGB   [3]int `json:"rgb"`
	HSV   [3]int `json:"hsv"`
	IsRed bool   `json:"is_red"`
}

func (s *Server) handleSheetSampleHSV(args json.RawMessage) (interface{}, error) {
	var a sampleHSVArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	cfg, err := s.configFor(a.thresholdArgs)
	if err != nil {
		return nil, err
	}
	img, err := imaging.Load(a.Path)
	if err != nil {
		return nil, errors.NewImageUnreadableError(a.Path, err)
	}

	b := img.Bounds()
	pt := image.Pt(b.Min.X+a.X, b.Min.Y+a.Y)
	if !pt.In(b) {
		return nil, fmt.Errorf("point (%d, %d) is outside the %dx%d image", a.X, a.Y, b.Dx(), b.Dy())
	}

	c := color.RGBAModel.Convert(img.At(pt.X, pt.Y)).(color.RGBA)
	h, sat, v, ok := imaging.ToHSV(c)
	red := ok && (cfg.Color.Range1.Contains(h, sat, v) || cfg.Color.Range2.Contains(h, sat, v))
	return sampleHSVResult{
		X:     a.X,
		Y:     a.Y,
		RGB:   [3]int{int(c.R), int(c.G), int(c.B)},
		HSV:   [3]int{h, sat, v},
		IsRed: red,
	}, nil
}

type redRegionsArgs struct {
	Path         string `json:"path"`
	AnnotatePath string `json:"annotate_path"`
	thresholdArgs
}

type regionInfo struct {
	X      int     `json:"x"`
	Y      int     `json:"y"`
	Width  int     `json:"width"`
	Height int     `json:"height"`
	Area   int     `json:"area"`
	Ratio  float64 `json:"ratio"`
}

type redRegionsResult struct {
	RedPixels  int          `json:"red_pixels"`
	Components int          `json:"components"`
	Regions    []regionInfo `json:"regions"`
	Annotated  string       `json:"annotated,omitempty"`
}

func (s *Server) handleSheetRedRegions(args json.RawMessage) (interface{}, error) {
	var a redRegionsArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	cfg, err := s.configFor(a.thresholdArgs)
	if err != nil {
		return nil, err
	}
	img, err := imaging.Load(a.Path)
	if err != nil {
		return nil, errors.NewImageUnreadableError(a.Path, err)
	}

	mask := detection.NewSegmenter(cfg.Color).Segment(img)
	all := detection.FindRegions(mask)
	kept := detection.NewGeometryFilter(cfg.Geometry).Filter(all)

	out := redRegionsResult{
		RedPixels:  mask.Count(),
		Components: len(all),
		Regions:    make([]regionInfo, 0, len(kept)),
	}
	boxes := make([]image.Rectangle, 0, len(kept))
	for _, r := range kept {
		out.Regions = append(out.Regions, regionInfo{
			X:      r.Rect.Min.X,
			Y:      r.Rect.Min.Y,
			Width:  r.Rect.Dx(),
			Height: r.Rect.Dy(),
			Area:   r.Area,
			Ratio:  r.Ratio(),
		})
		boxes = append(boxes, r.Rect)
	}

	if a.AnnotatePath != "" {
		annotated := imaging.DrawBoxes(img, boxes, imaging.DefaultBoxColor, true)
		if err := imaging.Save(annotated, a.AnnotatePath); err != nil {
			return nil, err
		}
		out.Annotated = a.AnnotatePath
	}
	return out, nil
}

type motorBlocksArgs struct {
	Path        string  `json:"path"`
	TopFraction float64 `json:"top_fraction"`
}

type motorBlocksResult struct {
	SectionHeight int          `json:"section_height"`
	Blocks        []regionInfo `json:"blocks"`
}

func (s *Server) handleSheetMotorBlocks(args json.RawMessage) (interface{}, error) {
	var a motorBlocksArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	cfg := s.cfg.Clone()
	if a.TopFraction > 0 {
		cfg.Motor.TopFraction = a.TopFraction
	}
	if err := cfg.Validate(); err != nil {
		return nil, errors.NewInvalidConfigError(err)
	}
	img, err := imaging.Load(a.Path)
	if err != nil {
		return nil, errors.NewImageUnreadableError(a.Path, err)
	}

	m, err := detection.NewMotorExtractor(cfg.Motor, nil, s.log)
	if err != nil {
		return nil, errors.NewInvalidConfigError(err)
	}
	top := imaging.TopSection(img, cfg.Motor.TopFraction)
	blocks := m.TextBlocks(top, nil)

	out := motorBlocksResult{
		SectionHeight: top.Bounds().Dy(),
		Blocks:        make([]regionInfo, 0, len(blocks)),
	}
	for _, b := range blocks {
		out.Blocks = append(out.Blocks, regionInfo{
			X:      b.Min.X,
			Y:      b.Min.Y,
			Width:  b.Dx(),
			Height: b.Dy(),
			Area:   b.Dx() * b.Dy(),
			Ratio:  float64(b.Dx()) / float64(b.Dy()),
		})
	}
	return out, nil
}

type presetInfo struct {
	Name  string `json:"name"`
	SMin  int    `json:"s_min"`
	VMin  int    `json:"v_min"`
	Level string `json:"level"`
}

func (s *Server) handlePresetsList() (interface{}, error) {
	names := config.PresetNames()
	out := make([]presetInfo, 0, len(names))
	for _, name := range names {
		p := config.Presets[name]
		out = append(out, presetInfo{Name: name, SMin: p.S, VMin: p.V, Level: config.Level(p.S, p.V)})
	}
	return map[string]interface{}{"presets": out}, nil
}

// === OCR Handlers ===

func (s *Server) handleOCRStatus() (interface{}, error) {
	info, err := s.check()
	if err != nil && info.Error == "" {
		info.Error = err.Error()
	}
	return info, nil
}
