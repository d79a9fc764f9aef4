// Package server implements an MCP (Model Context Protocol) server exposing the
// red-numbers pipeline as tools.
//
// # Protocol
//
// The server communicates over stdio using JSON-RPC 2.0:
//   - Input: JSON-RPC requests on stdin (one per line)
//   - Output: JSON-RPC responses on stdout
//
// Supported MCP methods:
//   - initialize: Protocol handshake
//   - tools/list: Enumerate available tools
//   - tools/call: Execute a tool with arguments
//   - ping: Health check
//
// # Available Tools
//
// Pipeline:
//   - sheet_process: numbers and motor codes of one sheet
//   - sheet_process_folder: batch a folder and write the spreadsheet
//
// Tuning:
//   - sheet_sample_hsv: HSV of one pixel and whether it counts as red ink
//   - sheet_red_regions: digit-group regions without OCR, optionally annotated
//   - sheet_motor_blocks: motor-code text blocks without OCR
//   - presets_list: saturation/brightness presets
//
// OCR:
//   - ocr_status: availability of the OCR engine
//
// Detection tools accept "preset", "s_min" and "v_min" to try thresholds
// without changing the server's configuration.
//
// # Response Format
//
// Tool results are returned as JSON in MCP's content format:
//
//	{
//	  "content": [{"type": "text", "text": "<JSON result>"}]
//	}
//
// Errors use standard JSON-RPC error codes:
//   - -32601: Method not found
//   - -32602: Invalid params
//   - -32000: Tool execution failed
package server
