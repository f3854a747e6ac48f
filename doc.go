/*
helmetvision runs two independent on-device inference pipelines against a
supplied photograph: helmet detection via an object detection model, and
face/target classification via an image classifier.  Results from both
pipelines are merged into a display ready DetectorState which an external
renderer consumes, and the render subpackage can draw the detections as an
overlay on the image.

The models are opaque pre-trained artifacts loaded at startup.  The dnn
subpackage provides concrete backends built on the OpenCV DNN module for
ONNX model files.

See example usage in the cmd subdirectory.
*/
package helmetvision
