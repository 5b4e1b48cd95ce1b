package vesyncConfig

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"

	"github.com/zabeloliver/vesync-config-exporter/vesync-api/vesyncStructs"
)

// Requester is the subset of the VeSync API client the fetcher needs.
type Requester interface {
	CallApi(ctx context.Context, path string, method string, headers map[string]string, body any) (any, int, error)
	ReqHeaderBypass() map[string]string
	BypassBodyV2() map[string]any
}

// LinkageResult keeps apart "request failed" from "no linkage data found".
type LinkageResult int

const (
	LinkageFailed LinkageResult = iota
	LinkageNoData
	LinkageProcessed
)

func (r LinkageResult) String() string {
	switch r {
	case LinkageNoData:
		return "no_data"
	case LinkageProcessed:
		return "processed"
	default:
		return "failed"
	}
}

// ConfigFetcher pulls linkage properties and device specifications from the
// cloud and keeps the entries belonging to the known configuration modules.
//
// Calls are not synchronized; callers must not run them concurrently.
type ConfigFetcher struct {
	api     Requester
	modules map[string]string
	linkage vesyncStructs.LinkageActionMap
	specs   map[string]vesyncStructs.DeviceSpec
	logger  *zap.SugaredLogger
}

func NewConfigFetcher(api Requester, moduleIds []string, logger *zap.SugaredLogger) *ConfigFetcher {
	modules := make(map[string]string, len(moduleIds))
	for _, id := range moduleIds {
		key := strings.ToLower(id)
		if _, ok := modules[key]; !ok {
			modules[key] = id
		}
	}
	return &ConfigFetcher{
		api:     api,
		modules: modules,
		linkage: make(vesyncStructs.LinkageActionMap),
		specs:   make(map[string]vesyncStructs.DeviceSpec),
		logger:  logger,
	}
}

func (f *ConfigFetcher) isKnown(module string) bool {
	_, ok := f.modules[strings.ToLower(module)]
	return ok
}

// ModuleIds returns the known configuration modules as given, sorted.
func (f *ConfigFetcher) ModuleIds() []string {
	ids := maps.Values(f.modules)
	slices.Sort(ids)
	return ids
}

func (f *ConfigFetcher) Linkage() vesyncStructs.LinkageActionMap {
	out := make(vesyncStructs.LinkageActionMap, len(f.linkage))
	for module, actions := range f.linkage {
		out[module] = maps.Clone(actions)
	}
	return out
}

func (f *ConfigFetcher) Specs() map[string]vesyncStructs.DeviceSpec {
	return maps.Clone(f.specs)
}

// fetch posts body and returns the response object when it carries code 0.
func (f *ConfigFetcher) fetch(ctx context.Context, path string, body map[string]any) (map[string]any, bool) {
	res, status, err := f.api.CallApi(ctx, path, "post", f.api.ReqHeaderBypass(), body)
	if err != nil {
		f.logger.Debugf("Request to %s failed: %s", path, err)
		return nil, false
	}
	obj, ok := asObject(res)
	if !ok {
		f.logger.Debugf("Response of %s is not an object (status %d)", path, status)
		return nil, false
	}
	if !isSuccessCode(obj["code"]) {
		f.logger.Debugf("Response of %s returned code %v: %v", path, obj["code"], obj["msg"])
		return nil, false
	}
	return obj, true
}

func (f *ConfigFetcher) GetLinkage(ctx context.Context) LinkageResult {
	body := f.api.BypassBodyV2()
	body["method"] = vesyncStructs.LinkageMethod

	res, ok := f.fetch(ctx, vesyncStructs.LinkagePath, body)
	if !ok {
		f.logger.Debug("Failed to get supported linkage properties")
		return LinkageFailed
	}
	return f.ProcessLinkage(res)
}

func (f *ConfigFetcher) ProcessLinkage(response map[string]any) LinkageResult {
	devices, ok := asList(lookup(response, "result", "devicePropertiesList"))
	if !ok || len(devices) == 0 {
		f.logger.Debug("No supported linkage properties found")
		return LinkageNoData
	}

	// Modules present in this response replace their previous action map.
	fresh := make(vesyncStructs.LinkageActionMap)
	for _, d := range devices {
		dev, ok := asObject(d)
		if !ok {
			continue
		}
		module := optionalString(dev, "configModule")
		if !f.isKnown(module) {
			continue
		}
		actions, ok := fresh[module]
		if !ok {
			actions = make(map[vesyncStructs.ActionId]any)
			fresh[module] = actions
		}
		props, _ := asList(dev["actionPropertyList"])
		for _, p := range props {
			prop, ok := asObject(p)
			if !ok {
				continue
			}
			id, ok := asInt(prop["actionId"])
			if !ok {
				f.logger.Debugf("Skipping linkage action of %s without numeric actionId: %v", module, prop["actionId"])
				continue
			}
			action := vesyncStructs.ActionId(id)
			if !action.Known() {
				f.logger.Debugf("Unrecognised linkage action %d for %s", id, module)
			}
			actions[action] = prop["actionProps"]
		}
	}
	maps.Copy(f.linkage, fresh)
	f.logger.Infof("Linkage properties known for %d configuration modules", len(f.linkage))
	return LinkageProcessed
}

func (f *ConfigFetcher) GetSpecs(ctx context.Context) (bool, error) {
	body := f.api.BypassBodyV2()
	body["method"] = vesyncStructs.AppConfigMethod
	body["token"] = ""
	body["accountID"] = ""
	body["userCountryCode"] = ""
	body["categories"] = []vesyncStructs.AppConfigCategory{{
		Category: vesyncStructs.SupportedModelsCategory,
		TestMode: false,
		Version:  "",
	}}

	res, ok := f.fetch(ctx, vesyncStructs.AppConfigPath, body)
	if !ok {
		f.logger.Debug("Failed to get device config")
		return false, nil
	}
	return f.ProcessSpecs(res)
}

// ProcessSpecs walks the supported models catalog. Structural gaps in the
// outer layers return false; a required field missing deeper in the catalog
// returns false with a *MissingFieldError. Specs are only updated when the
// whole walk succeeds.
func (f *ConfigFetcher) ProcessSpecs(response map[string]any) (bool, error) {
	var items []any
	if configList, ok := asList(lookup(response, "result", "configList")); ok && len(configList) > 0 {
		if first, ok := asObject(configList[0]); ok {
			items, _ = asList(first["items"])
		}
	}
	if len(items) == 0 {
		f.logger.Debug("No device specifications found")
		return false, nil
	}
	item, ok := asObject(items[0])
	if !ok {
		f.logger.Debug("No device specifications found")
		return false, nil
	}

	var catalog map[string]any
	itemValue, _ := item["itemValue"].(string)
	if err := json.Unmarshal([]byte(itemValue), &catalog); err != nil {
		f.logger.Debugf("Failed to parse device specifications: %s", err)
		return false, nil
	}
	lines, ok := asList(catalog["productLineList"])
	if !ok {
		f.logger.Debug("No device specifications found")
		return false, nil
	}

	staged := make(map[string]vesyncStructs.DeviceSpec)
	if err := f.walkProductLines(lines, staged); err != nil {
		f.logger.Warnf("Malformed device specifications: %s", err)
		return false, err
	}
	maps.Copy(f.specs, staged)
	f.logger.Infof("Device specifications matched for %d configuration modules", len(staged))
	return true, nil
}

func (f *ConfigFetcher) walkProductLines(lines []any, out map[string]vesyncStructs.DeviceSpec) error {
	for i, l := range lines {
		line, ok := asObject(l)
		if !ok {
			continue
		}
		types, ok := asList(line["typeInfoList"])
		if !ok {
			continue
		}
		for j, t := range types {
			path := fmt.Sprintf("productLineList[%d].typeInfoList[%d]", i, j)
			if err := f.walkType(t, path, out); err != nil {
				return err
			}
		}
	}
	return nil
}

func (f *ConfigFetcher) walkType(t any, path string, out map[string]vesyncStructs.DeviceSpec) error {
	prodType, ok := asObject(t)
	if !ok {
		return &MissingFieldError{Path: path}
	}
	typeName, err := requireString(prodType, path, "typeName")
	if err != nil {
		return err
	}
	models, err := requireList(prodType, path, "modelInfoList")
	if err != nil {
		return err
	}

	currentType := strings.ToLower(typeName)
	for k, m := range models {
		modelPath := fmt.Sprintf("%s.modelInfoList[%d]", path, k)
		model, ok := asObject(m)
		if !ok {
			return &MissingFieldError{Path: modelPath}
		}
		modelId, err := requireString(model, modelPath, "model")
		if err != nil {
			return err
		}
		configModules, ok := asList(model["configModuleInfoList"])
		if !ok {
			continue
		}
		for _, c := range configModules {
			configModule, ok := asObject(c)
			if !ok {
				continue
			}
			module := optionalString(configModule, "configModule")
			if !f.isKnown(module) {
				continue
			}
			modelName, err := requireString(model, modelPath, "modelName")
			if err != nil {
				return err
			}
			modelDisplay, err := requireString(model, modelPath, "modelDisplay")
			if err != nil {
				return err
			}
			out[module] = vesyncStructs.DeviceSpec{
				Type:         currentType,
				Model:        strings.ToLower(modelId),
				ModelName:    modelName,
				ModelDisplay: modelDisplay,
			}
		}
	}
	return nil
}
