package server

// Tool represents an MCP tool definition
type Tool struct {
	Name        string                 `json:"name"`
	Description string                 `json:"description"`
	InputSchema map[string]interface{} `json:"inputSchema"`
}

func stringProp(description string) map[string]interface{} {
	return map[string]interface{}{"type": "string", "description": description}
}

func integerProp(description string) map[string]interface{} {
	return map[string]interface{}{"type": "integer", "description": description}
}

// thresholdProps are the optional S/V overrides shared by the detection tools.
func thresholdProps(props map[string]interface{}) map[string]interface{} {
	props["preset"] = map[string]interface{}{
		"type":        "string",
		"description": "Saturation/brightness preset",
		"enum":        []string{"very-strict", "strict", "medium", "permissive", "very-permissive"},
	}
	props["s_min"] = integerProp("Minimum saturation of red ink (0-255). Overrides the preset.")
	props["v_min"] = integerProp("Minimum brightness of red ink (0-255). Overrides the preset.")
	return props
}

// GetToolDefinitions returns all available tools
func GetToolDefinitions() []Tool {
	return []Tool{
		// Pipeline
		{
			Name:        "sheet_process",
			Description: "Run the full pipeline on one sheet image and return the red part numbers and motor codes found on it.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": thresholdProps(map[string]interface{}{
					"path": stringProp("Absolute path to the sheet image"),
				}),
				"required": []string{"path"},
			},
		},
		{
			Name:        "sheet_process_folder",
			Description: "Process every image of a folder in parallel and write the rows to a spreadsheet (or CSV when the name ends in .csv).",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": thresholdProps(map[string]interface{}{
					"input":   stringProp("Absolute path to the folder of sheet images"),
					"output":  stringProp("Folder for the result file. Default: the input folder"),
					"name":    stringProp("Result file name. Default: numeros_rojos.xlsx"),
					"workers": integerProp("Parallel workers. Default: number of CPUs"),
				}),
				"required": []string{"input"},
			},
		},

		// Tuning
		{
			Name:        "sheet_sample_hsv",
			Description: "Sample a pixel and report its RGB and HSV (OpenCV scale: H 0-180, S and V 0-255) and whether it counts as red ink under the given thresholds.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": thresholdProps(map[string]interface{}{
					"path": stringProp("Absolute path to the sheet image"),
					"x":    integerProp("X coordinate"),
					"y":    integerProp("Y coordinate"),
				}),
				"required": []string{"path", "x", "y"},
			},
		},
		{
			Name:        "sheet_red_regions",
			Description: "List the red regions accepted as digit groups, without running OCR. Optionally writes an annotated copy of the sheet.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": thresholdProps(map[string]interface{}{
					"path":          stringProp("Absolute path to the sheet image"),
					"annotate_path": stringProp("Optional path of a PNG with the regions boxed and numbered"),
				}),
				"required": []string{"path"},
			},
		},
		{
			Name:        "sheet_motor_blocks",
			Description: "List the text blocks in the top section of a sheet that are candidates for the motor code, without running OCR.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": stringProp("Absolute path to the sheet image"),
					"top_fraction": map[string]interface{}{
						"type":        "number",
						"description": "Fraction of the sheet height searched. Default 0.90",
					},
				},
				"required": []string{"path"},
			},
		},
		{
			Name:        "presets_list",
			Description: "List the saturation/brightness presets and how permissive each one is.",
			InputSchema: map[string]interface{}{
				"type":       "object",
				"properties": map[string]interface{}{},
			},
		},

		// OCR
		{
			Name:        "ocr_status",
			Description: "Report whether the OCR engine is installed and usable.",
			InputSchema: map[string]interface{}{
				"type":       "object",
				"properties": map[string]interface{}{},
			},
		},
	}
}
