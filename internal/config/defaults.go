package config

// Default returns the built-in layout for goos: protobuf and SDL2 built from
// external/ into build/, bindings generated from proto/rocktree.proto into
// the client crate, and the client compiled into "ere".
//
// The root is the parent of the crate directory, so running from the crate
// with a default config matches the historical layout.
func Default(goos string) *Config {
	cfg := &Config{
		Root:      "..",
		OutDirEnv: "OUT_DIR",
		Dependencies: Dependencies{
			Schema: DependencyConfig{
				Name:    "protobuf",
				Source:  "external/protobuf/cmake",
				Output:  "build/protobuf",
				Include: "external/protobuf/src",
				Link:    LinkConfig{Dir: "lib", Kind: "static"},
				Defines: map[string]string{"protobuf_BUILD_TESTS": "OFF"},
			},
			Media: DependencyConfig{
				Name:    "sdl",
				Source:  "external/sdl",
				Output:  "build/sdl",
				Include: "external/sdl/include",
				Link:    LinkConfig{Dir: "lib", Name: "SDL2", Kind: "static"},
			},
		},
		Schema: SchemaConfig{
			Files:    []string{"proto/rocktree.proto"},
			Out:      "client/cpp/src",
			Bindings: "client/cpp/src/proto",
			Lang:     "cpp",
		},
		Unit: UnitConfig{
			Name:  "ere",
			Crate: "client",
			Sources: []string{
				"cpp/src/crn/crn.cc",
				"cpp/src/main.cpp",
			},
			Includes: []string{
				"cpp/src/crn",
				"cpp/src",
				"cpp/include",
			},
			ThirdParty: []string{
				"external",
				"external/eigen",
				"external/gl2/include",
			},
			Cpp:       true,
			StaticCRT: true,
		},
	}

	pb := &cfg.Dependencies.Schema
	sdl := &cfg.Dependencies.Media
	switch goos {
	case "windows":
		pb.Compiler = "bin/protoc.exe"
		pb.Artifacts = []string{pb.Compiler, "lib/libprotobuf.lib"}
		pb.Link.Name = "libprotobuf"
		sdl.Artifacts = []string{"lib/SDL2.lib"}
		sdl.Runtime = "bin/SDL2.dll"
		cfg.Unit.Defines = map[string]*string{
			"_CRT_SECURE_NO_WARNINGS": nil,
			"WIN32_LEAN_AND_MEAN":     nil,
		}
		cfg.Unit.Flags = []string{"/std:c++14", "/EHsc"}
	default:
		pb.Compiler = "bin/protoc"
		pb.Artifacts = []string{pb.Compiler, "lib/libprotobuf.a"}
		pb.Link.Name = "protobuf"
		sdl.Artifacts = []string{"lib/libSDL2.a"}
		if goos == "darwin" {
			sdl.Runtime = "lib/libSDL2-2.0.0.dylib"
		} else {
			sdl.Runtime = "lib/libSDL2-2.0.so.0"
		}
		cfg.Unit.Defines = map[string]*string{}
		cfg.Unit.Flags = []string{"-std=c++14"}
	}
	return cfg
}
