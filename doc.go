// Package demo2rules converts recorded SO-101 demonstrations into
// durable_rules programs.
//
// A demonstration is a time series of joint positions. It is split into
// stages wherever the arm settles onto a low-speed plateau, each stage is
// summarised by the pose and gripper state at its end, and the stages are
// rendered as a chain of rules that replay the demonstration step by step.
//
// # Installation
//
//	go install github.com/gwillem/demo2rules/cmd/demo2rules@latest
//
// # Usage
//
// Record a demonstration by moving a torque-free arm by hand:
//
//	demo2rules record --calibration follower.json --duration 30s
//
// Look at where the stages fall, then generate the program:
//
//	demo2rules inspect --dataset demos.db
//	demo2rules generate --dataset demos.db --out rules_autogen.py
//
// # Packages
//
//   - cmd/demo2rules: CLI with init, generate, inspect, record and validate commands
//   - pkg/trajectory: frames and velocity derivation
//   - pkg/segment: plateau detection and stage boundaries
//   - pkg/waypoint: stage summaries and column-label extractors
//   - pkg/rules: program rendering and validation
//   - pkg/pipeline: the end-to-end transform
//   - pkg/dataset: dataset directories, CSV exports and the SQLite store
//   - pkg/record: sampling a hand-guided arm
//   - pkg/robot: arm access and calibration
//   - pkg/config: project configuration
package demo2rules
